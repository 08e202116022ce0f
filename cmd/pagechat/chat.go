package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"pagechat/backend/internal/app"
	"pagechat/backend/internal/model"
	"pagechat/backend/internal/service"
)

// errReplyFailed marks a turn whose reply was recorded as an error entry.
var errReplyFailed = errors.New("the model did not answer")

type askOptions struct {
	context bool
	length  string
	model   string
	image   string
	action  string
	fresh   bool
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	ask := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Send a message in the current conversation and stream the reply",
		Example: `  pagechat ask "What does this error mean?"
  pagechat ask --context "Summarize the argument in two lines"
  pagechat ask --model meta-llama/llama-4-scout-17b-16e-instruct --image shot.png "What is in this screenshot?"
  pagechat ask --action key_points`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" && ask.action == "" && ask.image == "" {
				return errors.New("a question, --image or --action is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			cmd.SetContext(ctx)

			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return runAsk(ctx, cmd, a, ask, question)
			})
		},
	}

	cmd.Flags().BoolVar(&ask.context, "context", false, "include the open page as context")
	cmd.Flags().StringVar(&ask.length, "length", "", "response length: short, medium or long")
	cmd.Flags().StringVar(&ask.model, "model", "", "model id, as listed by pagechat models")
	cmd.Flags().StringVar(&ask.image, "image", "", "attach an image file (vision models only)")
	cmd.Flags().StringVar(&ask.action, "action", "", "run a quick action instead: summarize, explain or key_points")
	cmd.Flags().BoolVar(&ask.fresh, "new", false, "start a new conversation first")
	return cmd
}

func runAsk(ctx context.Context, cmd *cobra.Command, a *app.App, ask *askOptions, question string) error {
	if ask.fresh {
		if _, err := a.Chat.StartNewSession(ctx); err != nil {
			return err
		}
	}

	if cmd.Flags().Changed("model") || cmd.Flags().Changed("length") {
		options := a.Chat.Snapshot().Options
		if ask.model != "" {
			options.Model = ask.model
		}
		if ask.length != "" {
			options.ResponseLength = service.ResponseLength(ask.length)
			if !options.ResponseLength.Valid() {
				return fmt.Errorf("invalid --length %q: want short, medium or long", ask.length)
			}
		}
		if _, err := a.Chat.UpdateOptions(ctx, options); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	onDelta := func(delta string) {
		_, _ = io.WriteString(out, delta)
	}

	var (
		msg *model.Message
		err error
	)
	if ask.action != "" {
		msg, err = a.Chat.RunQuickAction(ctx, ask.action, onDelta)
	} else {
		req := service.TurnRequest{Text: &question, IncludeContext: ask.context}
		if ask.image != "" {
			attachment, aerr := imageAttachment(ask.image)
			if aerr != nil {
				return aerr
			}
			req.Attachment = attachment
		}
		msg, err = a.Chat.SendTurn(ctx, req, onDelta)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out)

	if msg.IsError {
		fmt.Fprintln(cmd.ErrOrStderr(), msg.Content.PlainText())
		return errReplyFailed
	}
	return nil
}

// imageAttachment reads path and encodes it as a base64 data URL.
func imageAttachment(path string) (*model.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read image: %w", err)
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%s is not an image (detected %s)", path, mimeType)
	}
	return &model.Attachment{
		DataURL: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

func newNewCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				id, err := a.Chat.StartNewSession(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login [api-key]",
		Short: "Store the API key for the completion endpoint",
		Long:  "Stores the API key. Without an argument the key is read from the first line of stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("could not read API key: %w", err)
				}
				key = line
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Settings.SaveAPIKey(ctx, key); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "API key saved.")
				return nil
			})
		},
	}
}

func newModelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				key, err := a.Settings.APIKey(ctx)
				if err != nil {
					return err
				}
				current := a.Chat.Snapshot().Options.Model
				w := newTable(cmd.OutOrStdout())
				fmt.Fprintln(w, "\tID\tNAME\tCAPABILITIES")
				for _, m := range a.Models.List(ctx, key) {
					marker := ""
					if m.ID == current {
						marker = "*"
					}
					caps := make([]string, len(m.Capabilities))
					for i, c := range m.Capabilities {
						caps[i] = string(c)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, m.ID, m.Name, strings.Join(caps, ","))
				}
				return w.Flush()
			})
		},
	}
}
