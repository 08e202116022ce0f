package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pagechat/backend/internal/app"
	"pagechat/backend/internal/model"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "history",
		Aliases: []string{"ls"},
		Short:   "List conversations, pinned first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				list, err := a.Chat.ListConversations(ctx)
				if err != nil {
					return err
				}
				current := a.Chat.Snapshot().ID
				w := newTable(cmd.OutOrStdout())
				fmt.Fprintln(w, "\tID\tUPDATED\tMESSAGES\tTITLE")
				for _, c := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
						markers(c, current), c.ID, c.UpdatedAt.Local().Format(time.DateTime), c.MessageCount, c.Title)
				}
				return w.Flush()
			})
		},
	}
}

// markers flags the open conversation with ">" and pinned ones with "*".
func markers(c model.ConversationSummary, current string) string {
	m := ""
	if c.ID == current {
		m += ">"
	}
	if c.IsPinned {
		m += "*"
	}
	return m
}

func newOpenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open <id>",
		Short: "Make a conversation current and print its transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Chat.LoadSession(ctx, args[0]); err != nil {
					return err
				}
				printTranscript(cmd.OutOrStdout(), a.Chat.Snapshot().Messages)
				return nil
			})
		},
	}
}

func printTranscript(w io.Writer, messages []model.Message) {
	for _, m := range messages {
		fmt.Fprintf(w, "%s: %s\n", m.Role, m.Content.PlainText())
		for _, p := range m.Content.Parts {
			if p.Type == model.PartTypeImage {
				fmt.Fprintln(w, "  [image]")
			}
		}
	}
}

func newPinCmd(opts *rootOptions, pinned bool) *cobra.Command {
	use, short := "pin <id>", "Pin a conversation to the top of the history"
	if !pinned {
		use, short = "unpin <id>", "Unpin a conversation"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Chat.PinConversation(ctx, args[0], pinned)
			})
		},
	}
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a conversation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Chat.DeleteConversation(ctx, args[0])
			})
		},
	}
}
