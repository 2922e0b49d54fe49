package telegram

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	tally "github.com/uber-go/tally/v4"
	"github.com/uberzzr/claude-relay/src/relayd/controller/relay"
	"github.com/uberzzr/claude-relay/src/relayd/entity"
	telegramgw "github.com/uberzzr/claude-relay/src/relayd/gateway/telegram"
	"github.com/uberzzr/claude-relay/src/relayd/gateway/transcriber"
	relayerrors "github.com/uberzzr/claude-relay/src/relayd/internal/errors"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_nameKey = "telegram_handler"

	// Telegram rejects messages over 4096 characters; chunk a bit below
	// that to leave headroom.
	_maxMessageLen = 4000

	_replyBusy        = "Still working on your previous message. Try again once it finishes."
	_replyTimeout     = "The assistant did not answer in time. Please try again."
	_replySpawnFailed = "The assistant binary could not be started. Check the relay deployment."
	_replyEmpty       = "(the assistant returned no output)"
	_replyUnknownCmd  = "Unknown command. Send /help for the command list."

	_usage = `Send any text and it is relayed to the assistant session for this chat.

/cd <path> — set the workspace directory
/pwd — show the current workspace
/clearcd — clear the workspace mapping
/reset — start a fresh assistant session
/info — show the current session
/help — this message`
)

// Handler consumes the Telegram update stream and routes each update to the
// relay controller. One goroutine per update; per-chat serialization is the
// controller's admission gate, not the handler's concern.
type Handler interface {
	// HandleUpdate processes a single update synchronously.
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// Params defines the dependencies that will be available to this handler.
type Params struct {
	fx.In

	Gateway     telegramgw.Gateway
	Relay       relay.Controller
	Transcriber transcriber.Transcriber
	Config      config.Provider
	Logger      *zap.SugaredLogger
	Stats       tally.Scope
	Lifecycle   fx.Lifecycle
}

type handler struct {
	gateway     telegramgw.Gateway
	relay       relay.Controller
	transcriber transcriber.Transcriber
	logger      *zap.SugaredLogger
	allowed     map[int64]struct{}

	updates tally.Counter
	denied  tally.Counter

	wg   sync.WaitGroup
	done chan struct{}
}

// New creates the handler and binds its poll loop to the application
// lifecycle.
func New(p Params) (Handler, error) {
	var cfg entity.TelegramConfig
	if err := p.Config.Get(entity.TelegramConfigKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting configuration for %q: %w", entity.TelegramConfigKey, err)
	}

	h := &handler{
		gateway:     p.Gateway,
		relay:       p.Relay,
		transcriber: p.Transcriber,
		logger:      p.Logger.With("component", _nameKey),
		updates:     p.Stats.SubScope(_nameKey).Counter("updates"),
		denied:      p.Stats.SubScope(_nameKey).Counter("denied"),
		done:        make(chan struct{}),
	}
	if len(cfg.AllowedChats) > 0 {
		h.allowed = make(map[int64]struct{}, len(cfg.AllowedChats))
		for _, id := range cfg.AllowedChats {
			h.allowed[id] = struct{}{}
		}
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go h.run()
			return nil
		},
		OnStop: h.stop,
	})

	return h, nil
}

// run drains the update stream until the gateway stops it. Each update is
// handled on its own goroutine so a slow invocation in one chat never
// blocks other chats.
func (h *handler) run() {
	defer close(h.done)
	for update := range h.gateway.Updates() {
		update := update
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.HandleUpdate(context.Background(), update)
		}()
	}
}

func (h *handler) stop(ctx context.Context) error {
	h.gateway.Stop()

	select {
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	h.updates.Inc(1)

	chat := entity.ChatContext{
		ID:    msg.Chat.ID,
		Group: msg.Chat.IsGroup() || msg.Chat.IsSuperGroup(),
	}

	if !h.authorized(chat.ID) {
		h.denied.Inc(1)
		h.logger.Warnw("dropping update from unauthorized chat", "chat", chat.ID)
		return
	}

	switch {
	case msg.IsCommand():
		h.handleCommand(ctx, chat, msg)
	case msg.Voice != nil:
		h.handleVoice(ctx, chat, msg)
	case msg.Text != "":
		h.relayText(ctx, chat, msg.Text)
	}
}

// authorized applies the chat allow-list. An empty list allows everyone.
func (h *handler) authorized(chatID int64) bool {
	if h.allowed == nil {
		return true
	}
	_, ok := h.allowed[chatID]
	return ok
}

func (h *handler) handleCommand(ctx context.Context, chat entity.ChatContext, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		h.reply(ctx, chat.ID, _usage)

	case "cd":
		if args == "" {
			h.reply(ctx, chat.ID, "Usage: /cd <absolute path>")
			return
		}
		if err := h.relay.SetWorkspace(ctx, chat, args); err != nil {
			var invalid *relayerrors.InvalidPathError
			if stderrors.As(err, &invalid) {
				h.reply(ctx, chat.ID, fmt.Sprintf("Not an existing directory: %s", invalid.Path))
				return
			}
			// Durability warning: the mapping took effect in memory.
			h.logger.Warnw("workspace mapping not persisted", "chat", chat.ID, "error", err)
		}
		h.reply(ctx, chat.ID, fmt.Sprintf("Workspace set to %s", h.relay.Workspace(ctx, chat)))

	case "pwd":
		h.reply(ctx, chat.ID, fmt.Sprintf("Current workspace: %s", h.relay.Workspace(ctx, chat)))

	case "clearcd":
		if err := h.relay.ClearWorkspace(ctx, chat); err != nil {
			h.logger.Warnw("workspace removal not persisted", "chat", chat.ID, "error", err)
		}
		h.reply(ctx, chat.ID, fmt.Sprintf("Workspace cleared, back to %s", h.relay.Workspace(ctx, chat)))

	case "reset":
		if _, err := h.relay.ResetSession(ctx, chat); err != nil {
			h.logger.Warnw("session reset not persisted", "chat", chat.ID, "error", err)
		}
		h.reply(ctx, chat.ID, "Started a fresh session.")

	case "info":
		rec, ok := h.relay.SessionInfo(ctx, chat)
		if !ok {
			h.reply(ctx, chat.ID, "No session yet for this chat and workspace.")
			return
		}
		h.reply(ctx, chat.ID, fmt.Sprintf("Session %s\nHandle: %s\nCreated: %s",
			rec.Key, rec.Handle, rec.CreatedAt.Format("2006-01-02 15:04:05 MST")))

	default:
		h.reply(ctx, chat.ID, _replyUnknownCmd)
	}
}

func (h *handler) handleVoice(ctx context.Context, chat entity.ChatContext, msg *tgbotapi.Message) {
	url, err := h.gateway.FileURL(ctx, msg.Voice.FileID)
	if err != nil {
		h.logger.Warnw("resolving voice file failed", "chat", chat.ID, "error", err)
		h.reply(ctx, chat.ID, "Could not fetch the voice message.")
		return
	}

	text, err := h.transcriber.Transcribe(ctx, url)
	if err != nil {
		h.logger.Warnw("transcription failed", "chat", chat.ID, "error", err)
		h.reply(ctx, chat.ID, "Could not transcribe the voice message.")
		return
	}

	h.relayText(ctx, chat, text)
}

func (h *handler) relayText(ctx context.Context, chat entity.ChatContext, text string) {
	if err := h.gateway.SendTyping(ctx, chat.ID); err != nil {
		h.logger.Debugw("typing action failed", "chat", chat.ID, "error", err)
	}

	out, err := h.relay.HandleMessage(ctx, chat, text)
	if err != nil {
		h.reply(ctx, chat.ID, errorReply(err))
		return
	}
	if out == "" {
		out = _replyEmpty
	}
	h.reply(ctx, chat.ID, out)
}

// reply sends text to the chat, chunked to Telegram's message size limit.
func (h *handler) reply(ctx context.Context, chatID int64, text string) {
	for _, chunk := range splitChunks(text, _maxMessageLen) {
		if err := h.gateway.Send(ctx, chatID, chunk); err != nil {
			h.logger.Errorw("sending reply failed", "chat", chatID, "error", err)
			return
		}
	}
}

// errorReply maps a classified relay error to a user-facing message.
func errorReply(err error) string {
	var (
		busy     *relayerrors.ChatBusyError
		timeout  *relayerrors.TimeoutError
		external *relayerrors.ExternalProcessError
		spawn    *relayerrors.SpawnError
	)
	switch {
	case stderrors.As(err, &busy):
		return _replyBusy
	case stderrors.As(err, &timeout):
		return _replyTimeout
	case stderrors.As(err, &external):
		return fmt.Sprintf("The assistant failed (exit %d):\n%s", external.ExitCode, external.Excerpt)
	case stderrors.As(err, &spawn):
		return _replySpawnFailed
	default:
		return fmt.Sprintf("Something went wrong: %v", err)
	}
}

// splitChunks breaks text into pieces of at most max bytes, preferring
// newline boundaries and never splitting inside a UTF-8 rune.
func splitChunks(text string, max int) []string {
	if len(text) <= max {
		return []string{text}
	}

	var chunks []string
	for len(text) > max {
		cut := strings.LastIndex(text[:max], "\n")
		if cut <= 0 {
			cut = max
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = max
			}
		}
		chunks = append(chunks, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
