package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	app_errors "pagechat/backend/internal/errors"
	"pagechat/backend/internal/llm"
	"pagechat/backend/internal/model"
	"pagechat/backend/internal/pagecontext"
	"pagechat/backend/internal/repository"
)

// Draft is the input the user has not sent yet.
type Draft struct {
	Text       string            `json:"text"`
	Attachment *model.Attachment `json:"attachment,omitempty"`
}

// Session is the conversation currently open in the side panel.
type Session struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	IsPinned bool            `json:"is_pinned"`
	Messages []model.Message `json:"messages"`
	Draft    Draft           `json:"draft"`
	Options  Settings        `json:"options"`
	Pending  bool            `json:"pending"`
}

func (s Session) clone() Session {
	s.Messages = slices.Clone(s.Messages)
	if s.Draft.Attachment != nil {
		a := *s.Draft.Attachment
		s.Draft.Attachment = &a
	}
	return s
}

// TurnRequest is the input of SendTurn. Nil Text or Attachment means "use
// the draft".
type TurnRequest struct {
	Text           *string
	Attachment     *model.Attachment
	IncludeContext bool
}

// ChatConfig carries the first-run defaults.
type ChatConfig struct {
	Defaults   Settings
	SeedAPIKey string
}

// ChatService drives the single active session: turn taking, page context,
// streaming and persistence.
type ChatService struct {
	repo     repository.Repository
	llm      llm.Provider
	pages    pagecontext.Provider
	settings *SettingsService
	models   *ModelService
	cfg      ChatConfig
	newID    func() string

	// saveMu orders turn writes against deletes. Lock order: saveMu, then mu.
	saveMu sync.Mutex

	mu      sync.Mutex
	session Session
	// gen changes whenever the session is replaced. A turn only writes back
	// while the generation it started under is still current.
	gen    uint64
	cancel context.CancelFunc
}

func NewChatService(
	repo repository.Repository,
	llmProvider llm.Provider,
	pages pagecontext.Provider,
	settings *SettingsService,
	models *ModelService,
	cfg ChatConfig,
) *ChatService {
	if pages == nil {
		pages = pagecontext.Noop{}
	}
	if cfg.Defaults.Model == "" {
		cfg.Defaults.Model = llm.DefaultModelID
	}
	if !cfg.Defaults.ResponseLength.Valid() {
		cfg.Defaults.ResponseLength = LengthMedium
	}
	return &ChatService{
		repo:     repo,
		llm:      llmProvider,
		pages:    pages,
		settings: settings,
		models:   models,
		cfg:      cfg,
		newID:    uuid.NewString,
		session:  Session{Options: cfg.Defaults},
	}
}

// Restore loads the stored options and reopens the current conversation. A
// pointer to a conversation that no longer exists starts a new session.
func (s *ChatService) Restore(ctx context.Context) (Session, error) {
	opts, err := s.settings.InitAndGet(ctx, s.cfg.Defaults, s.cfg.SeedAPIKey)
	if err != nil {
		return Session{}, err
	}
	s.mu.Lock()
	s.session.Options = *opts
	s.mu.Unlock()

	currentID, err := s.repo.GetCurrent(ctx)
	if err != nil {
		return Session{}, err
	}
	if currentID != "" {
		err := s.LoadSession(ctx, currentID)
		if err == nil {
			return s.Snapshot(), nil
		}
		if !errors.Is(err, app_errors.ErrNotFound) {
			return Session{}, err
		}
		slog.Info("Current conversation no longer exists, starting a new one.", "conversation_id", currentID)
	}
	if _, err := s.StartNewSession(ctx); err != nil {
		return Session{}, err
	}
	return s.Snapshot(), nil
}

// StartNewSession switches to a fresh, empty conversation and returns its id.
// A turn still streaming for the previous session is aborted.
func (s *ChatService) StartNewSession(ctx context.Context) (string, error) {
	id := s.newID()
	s.mu.Lock()
	s.abortLocked()
	s.session = Session{ID: id, Options: s.session.Options}
	s.mu.Unlock()

	if err := s.repo.SetCurrent(ctx, id); err != nil {
		return "", err
	}
	slog.Debug("Started new session.", "conversation_id", id)
	return id, nil
}

// LoadSession makes the stored conversation id the active session. Unknown
// ids return ErrNotFound and leave the session untouched.
func (s *ChatService) LoadSession(ctx context.Context, id string) error {
	conv, err := s.getConversation(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.abortLocked()
	s.session = Session{
		ID:       conv.ID,
		Title:    conv.Title,
		IsPinned: conv.IsPinned,
		Messages: slices.Clone(conv.Messages),
		Options:  s.session.Options,
	}
	s.mu.Unlock()

	return s.repo.SetCurrent(ctx, id)
}

// abortLocked cancels the in-flight turn, if any. The caller must hold mu.
func (s *ChatService) abortLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		slog.Info("Aborted in-flight turn.", "conversation_id", s.session.ID)
	}
	s.gen++
	s.session.Pending = false
}

// Snapshot returns a copy of the active session.
func (s *ChatService) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.clone()
}

// SetDraft replaces the unsent input.
func (s *ChatService) SetDraft(text string, attachment *model.Attachment) error {
	if attachment != nil && !strings.HasPrefix(attachment.DataURL, "data:") {
		return fmt.Errorf("%w: attachment must be a data URL", app_errors.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Draft = Draft{Text: text, Attachment: attachment}
	return nil
}

// UpdateOptions validates and stores the session options. Switching models
// drops an attached image.
func (s *ChatService) UpdateOptions(ctx context.Context, opts Settings) (Settings, error) {
	apiKey, err := s.settings.APIKey(ctx)
	if err != nil {
		slog.Warn("Could not read API key, checking the known catalog only.", "error", err)
		apiKey = ""
	}
	if _, ok := s.models.Resolve(ctx, apiKey, opts.Model); !ok {
		return Settings{}, fmt.Errorf("%w: unknown model %q", app_errors.ErrValidation, opts.Model)
	}
	if err := s.settings.Save(ctx, &opts); err != nil {
		return Settings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Options.Model != opts.Model {
		s.session.Draft.Attachment = nil
	}
	s.session.Options = opts
	return opts, nil
}

// SendTurn sends one user message and streams the reply through onDelta.
//
// Completion failures do not produce an error: they are recorded in the
// transcript as an assistant message with IsError set, which is returned.
// Errors are returned for rejected input, a turn already pending, a missing
// API key, an aborted turn and storage failures.
func (s *ChatService) SendTurn(ctx context.Context, req TurnRequest, onDelta llm.ChunkFunc) (*model.Message, error) {
	return s.send(ctx, turnInput{
		text:         req.Text,
		attachment:   req.Attachment,
		forceContext: req.IncludeContext,
	}, onDelta)
}

// RunQuickAction sends one of the canned page prompts. Page context is always
// included and the draft is left as it is.
func (s *ChatService) RunQuickAction(ctx context.Context, action string, onDelta llm.ChunkFunc) (*model.Message, error) {
	prompt, ok := quickActionPrompts[action]
	if !ok {
		return nil, fmt.Errorf("%w: unknown quick action %q", app_errors.ErrValidation, action)
	}

	s.mu.Lock()
	s.session.Options.IncludeContext = true
	opts := s.session.Options
	s.mu.Unlock()
	if err := s.settings.Save(ctx, &opts); err != nil {
		slog.Warn("Could not persist context toggle.", "error", err)
	}

	return s.send(ctx, turnInput{text: &prompt, forceContext: true, keepDraft: true}, onDelta)
}

type turnInput struct {
	text         *string
	attachment   *model.Attachment
	forceContext bool
	keepDraft    bool
}

func (s *ChatService) send(ctx context.Context, in turnInput, onDelta llm.ChunkFunc) (*model.Message, error) {
	apiKey, err := s.settings.APIKey(ctx)
	if err != nil {
		return nil, err
	}

	// Step 1: validate and claim the session.
	s.mu.Lock()
	if s.session.Pending {
		s.mu.Unlock()
		return nil, app_errors.ErrTurnInProgress
	}
	text := s.session.Draft.Text
	if in.text != nil {
		text = *in.text
	}
	attachment := s.session.Draft.Attachment
	if in.attachment != nil {
		attachment = in.attachment
	}
	if strings.TrimSpace(text) == "" && attachment == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: message text or an attachment is required", app_errors.ErrValidation)
	}
	if apiKey == "" {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: no API key has been saved", app_errors.ErrPermission)
	}

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.session.Pending = true
	s.cancel = cancel
	gen := s.gen
	opts := s.session.Options
	convID := s.session.ID
	s.mu.Unlock()

	userMsg := model.Message{Role: model.RoleUser, Content: model.TextContent(text)}
	if attachment != nil {
		userMsg.Content = model.ImageContent(text, attachment.DataURL)
	}

	// Step 2: page context or guidance only.
	systemMsg := s.systemMessage(turnCtx, opts, in.forceContext)

	// Step 3: record the user message.
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return nil, context.Canceled
	}
	s.session.Messages = append(s.session.Messages, userMsg)
	if !in.keepDraft {
		s.session.Draft = Draft{}
	}
	history := slices.Clone(s.session.Messages)
	conv := s.conversationLocked()
	s.session.Messages = append(s.session.Messages, model.Message{Role: model.RoleAssistant, Content: model.TextContent(""), Model: opts.Model})
	s.mu.Unlock()

	// Persistence outlives a caller that disconnects mid-turn.
	persistCtx := context.WithoutCancel(ctx)
	if err := s.persistTurn(persistCtx, gen, conv); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		slog.Error("Failed to persist user message.", "conversation_id", convID, "error", err)
	}

	// Step 4: stream the reply into the placeholder.
	onChunk := func(delta string) {
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		last := &s.session.Messages[len(s.session.Messages)-1]
		last.Content.Text += delta
		s.mu.Unlock()
		if onDelta != nil {
			onDelta(delta)
		}
	}

	slog.Info("Sending turn.", "conversation_id", convID, "model", opts.Model, "messages", len(history)+1)
	reply, completionErr := s.llm.Complete(turnCtx, &llm.CompletionRequest{
		APIKey:   apiKey,
		Model:    opts.Model,
		Messages: append([]model.Message{systemMsg}, history...),
	}, onChunk)

	// Step 5: settle the transcript.
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		slog.Info("Discarding reply of aborted turn.", "conversation_id", convID)
		return nil, context.Canceled
	}
	s.session.Pending = false
	s.cancel = nil

	var result model.Message
	var turnErr error
	switch {
	case completionErr == nil:
		result = *reply
		result.Model = opts.Model
		s.replaceLastLocked(result)
	case errors.Is(completionErr, context.Canceled) || errors.Is(completionErr, context.DeadlineExceeded):
		// The caller went away: keep whatever arrived.
		last := s.session.Messages[len(s.session.Messages)-1]
		if last.Content.IsEmpty() {
			s.session.Messages = s.session.Messages[:len(s.session.Messages)-1]
		}
		turnErr = completionErr
	default:
		slog.Warn("Completion failed.", "conversation_id", convID, "model", opts.Model, "error", completionErr)
		result = model.Message{Role: model.RoleAssistant, Content: model.TextContent(errorContent(completionErr)), IsError: true}
		last := s.session.Messages[len(s.session.Messages)-1]
		if last.Content.IsEmpty() {
			s.replaceLastLocked(result)
		} else {
			s.session.Messages = append(s.session.Messages, result)
		}
	}
	conv = s.conversationLocked()
	s.mu.Unlock()

	// Step 6: persist the finished turn.
	if err := s.persistTurn(persistCtx, gen, conv); err != nil {
		return nil, err
	}
	if turnErr != nil {
		return nil, turnErr
	}
	return &result, nil
}

// persistTurn saves conv unless the turn of generation gen has been aborted
// in the meantime, in which case it returns context.Canceled.
func (s *ChatService) persistTurn(ctx context.Context, gen uint64, conv *model.Conversation) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	aborted := s.gen != gen
	s.mu.Unlock()
	if aborted {
		slog.Info("Skipping write of aborted turn.", "conversation_id", conv.ID)
		return context.Canceled
	}
	return s.repo.Save(ctx, conv)
}

// systemMessage builds the leading system message. Page context is fetched
// when the toggle is on or the caller forces it; any failure falls back to
// the guidance-only prompt.
func (s *ChatService) systemMessage(ctx context.Context, opts Settings, force bool) model.Message {
	msg := model.Message{Role: model.RoleSystem, Content: model.TextContent(guidancePrompt(opts.ResponseLength))}
	if !opts.IncludeContext && !force {
		return msg
	}
	page, err := s.pages.PageContent(ctx)
	if err != nil {
		slog.Warn("Could not get page context.", "error", err)
		return msg
	}
	if strings.TrimSpace(page) == "" {
		return msg
	}
	msg.Content = model.TextContent(contextPrompt(opts.ResponseLength, page))
	return msg
}

func (s *ChatService) replaceLastLocked(m model.Message) {
	s.session.Messages[len(s.session.Messages)-1] = m
}

// conversationLocked builds the persisted form of the session, deriving the
// title on first save. The caller must hold mu.
func (s *ChatService) conversationLocked() *model.Conversation {
	if s.session.Title == "" {
		s.session.Title = model.DeriveTitle(s.session.Messages)
	}
	return &model.Conversation{
		ID:       s.session.ID,
		Title:    s.session.Title,
		IsPinned: s.session.IsPinned,
		Messages: slices.Clone(s.session.Messages),
	}
}

// ListConversations returns the history list, pinned first and then most
// recently updated.
func (s *ChatService) ListConversations(ctx context.Context) ([]model.ConversationSummary, error) {
	convs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(convs))
	for id := range convs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	list := make([]*model.Conversation, 0, len(ids))
	for _, id := range ids {
		list = append(list, convs[id])
	}

	sorted := model.SortForDisplay(list)
	out := make([]model.ConversationSummary, len(sorted))
	for i, c := range sorted {
		out[i] = c.Summary()
	}
	return out, nil
}

// GetConversation returns a stored conversation.
func (s *ChatService) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	return s.getConversation(ctx, id)
}

func (s *ChatService) getConversation(ctx context.Context, id string) (*model.Conversation, error) {
	conv, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: conversation %s", app_errors.ErrNotFound, id)
		}
		return nil, err
	}
	return conv, nil
}

// DeleteConversation removes a conversation. Deleting the active one starts
// a new session.
func (s *ChatService) DeleteConversation(ctx context.Context, id string) error {
	slog.Info("Deleting conversation.", "conversation_id", id)

	// A turn streaming into the conversation is aborted before the remove,
	// so none of its writes can land afterwards.
	s.saveMu.Lock()
	s.mu.Lock()
	current := s.session.ID == id
	if current {
		s.abortLocked()
	}
	s.mu.Unlock()
	err := s.repo.Remove(ctx, id)
	s.saveMu.Unlock()
	if err != nil {
		return err
	}

	if current {
		_, err := s.StartNewSession(ctx)
		return err
	}
	return nil
}

// PinConversation sets the pin state of a stored conversation.
func (s *ChatService) PinConversation(ctx context.Context, id string, pinned bool) error {
	if _, err := s.getConversation(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetPinned(ctx, id, pinned); err != nil {
		return err
	}
	s.mu.Lock()
	if s.session.ID == id {
		s.session.IsPinned = pinned
	}
	s.mu.Unlock()
	return nil
}
