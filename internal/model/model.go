package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Role is the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Content part types understood by the completion endpoint.
const (
	PartTypeText  = "text"
	PartTypeImage = "image_url"
)

// TitleMaxRunes is the length of a derived conversation title before the
// ellipsis marker is appended.
const TitleMaxRunes = 30

// TitleEllipsis is appended to titles that were cut short.
const TitleEllipsis = "..."

// ImageURL references an image, usually as a data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// ContentPart is one element of a multi-part message content.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// MarshalJSON always writes "text" on a text part, even when it is empty:
// the endpoint rejects text parts without it.
func (p ContentPart) MarshalJSON() ([]byte, error) {
	if p.Type == PartTypeText {
		return json.Marshal(struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{Type: p.Type, Text: p.Text})
	}
	type part ContentPart
	return json.Marshal(part(p))
}

// Content is either plain text or a list of parts. It is serialized as a JSON
// string in the first case and as an array in the second, which is the shape
// the completion endpoint expects.
type Content struct {
	Text  string
	Parts []ContentPart
}

// TextContent builds plain text content.
func TextContent(text string) Content {
	return Content{Text: text}
}

// ImageContent builds the two-part content used when an image is attached.
func ImageContent(text, imageURL string) Content {
	return Content{Parts: []ContentPart{
		{Type: PartTypeText, Text: text},
		{Type: PartTypeImage, ImageURL: &ImageURL{URL: imageURL}},
	}}
}

// IsMultipart reports whether the content carries parts instead of text.
func (c Content) IsMultipart() bool {
	return c.Parts != nil
}

// PlainText returns the textual portion of the content. Text parts are
// joined with a newline.
func (c Content) PlainText() string {
	if !c.IsMultipart() {
		return c.Text
	}
	var texts []string
	for _, p := range c.Parts {
		if p.Type == PartTypeText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// IsEmpty reports whether there is neither text nor any part.
func (c Content) IsEmpty() bool {
	return c.Text == "" && len(c.Parts) == 0
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsMultipart() {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Content{}
		return nil
	}
	switch data[0] {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*c = Content{Text: text}
		return nil
	case '[':
		var parts []ContentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		if parts == nil {
			parts = []ContentPart{}
		}
		*c = Content{Parts: parts}
		return nil
	default:
		return fmt.Errorf("message content must be a string or an array, got %s", string(data[:1]))
	}
}

// Message is a single entry of a transcript.
//
// IsError and Model are local annotations; they are stripped before a message
// list is sent to the completion endpoint.
type Message struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
	IsError bool    `json:"is_error,omitempty"`
	Model   string  `json:"model,omitempty"`
}

// Attachment is an image attached to a draft, held as a data URL.
type Attachment struct {
	DataURL string `json:"data_url"`
}

// Conversation is a persisted transcript.
type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	IsPinned  bool      `json:"is_pinned"`
}

// ConversationSummary is the history-list view of a conversation.
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	UpdatedAt    time.Time `json:"updated_at"`
	IsPinned     bool      `json:"is_pinned"`
	MessageCount int       `json:"message_count"`
}

// Summary returns the history-list view of c.
func (c *Conversation) Summary() ConversationSummary {
	return ConversationSummary{
		ID:           c.ID,
		Title:        c.Title,
		UpdatedAt:    c.UpdatedAt,
		IsPinned:     c.IsPinned,
		MessageCount: len(c.Messages),
	}
}

// DeriveTitle computes a conversation title from the first user message of a
// transcript. It returns "" when there is no user message with text.
func DeriveTitle(messages []Message) string {
	for _, m := range messages {
		if m.Role != RoleUser {
			continue
		}
		return truncateTitle(m.Content.PlainText())
	}
	return ""
}

func truncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= TitleMaxRunes {
		return s
	}
	return string(runes[:TitleMaxRunes]) + TitleEllipsis
}

// SortForDisplay orders conversations for the history list: pinned first,
// then most recently updated. Ties keep their input order.
func SortForDisplay(convs []*Conversation) []*Conversation {
	out := make([]*Conversation, len(convs))
	copy(out, convs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// StreamResponse is one event of a streamed turn sent to API clients.
type StreamResponse struct {
	Delta   string   `json:"delta,omitempty"`
	Done    bool     `json:"done,omitempty"`
	Message *Message `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
}
