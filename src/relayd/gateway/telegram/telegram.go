package telegram

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/uberzzr/claude-relay/src/relayd/entity"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const _defaultPollTimeout = 30 // seconds

// Gateway is the outbound Telegram Bot API surface plus the inbound update
// stream. All business logic lives behind it; the gateway itself only moves
// messages.
type Gateway interface {
	// Updates returns the long-poll update stream. The channel closes
	// after Stop.
	Updates() tgbotapi.UpdatesChannel
	// Send delivers a plain-text message to the chat.
	Send(ctx context.Context, chatID int64, text string) error
	// SendTyping shows the "typing…" chat action.
	SendTyping(ctx context.Context, chatID int64) error
	// FileURL resolves a Telegram file id to a direct download URL.
	FileURL(ctx context.Context, fileID string) (string, error)
	// BotName returns the authenticated bot's username.
	BotName() string
	// Stop ends the long poll and closes the update stream.
	Stop()
}

// Params defines the dependencies of the gateway.
type Params struct {
	fx.In

	Config config.Provider
	Logger *zap.SugaredLogger
}

type gateway struct {
	bot     *tgbotapi.BotAPI
	logger  *zap.SugaredLogger
	timeout int
}

// New returns a Gateway authenticated against the Bot API. A missing token
// is the one fatal startup condition of the relay.
func New(p Params) (Gateway, error) {
	var cfg entity.TelegramConfig
	if err := p.Config.Get(entity.TelegramConfigKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting configuration for %q: %w", entity.TelegramConfigKey, err)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("missing field %q in config block %q", "token", entity.TelegramConfigKey)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = tgbotapi.APIEndpoint
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = _defaultPollTimeout
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.Endpoint, http.DefaultClient)
	if err != nil {
		return nil, fmt.Errorf("authenticating with the Bot API: %w", err)
	}

	p.Logger.Infow("authenticated with Telegram", "bot", bot.Self.UserName)
	return &gateway{
		bot:     bot,
		logger:  p.Logger.With("gateway", "telegram"),
		timeout: cfg.PollTimeout,
	}, nil
}

func (g *gateway) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = g.timeout
	return g.bot.GetUpdatesChan(u)
}

func (g *gateway) Send(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := g.bot.Send(msg); err != nil {
		return fmt.Errorf("sending message to chat %d: %w", chatID, err)
	}
	return nil
}

func (g *gateway) SendTyping(ctx context.Context, chatID int64) error {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := g.bot.Request(action); err != nil {
		return fmt.Errorf("sending typing action to chat %d: %w", chatID, err)
	}
	return nil
}

func (g *gateway) FileURL(ctx context.Context, fileID string) (string, error) {
	url, err := g.bot.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("resolving file %q: %w", fileID, err)
	}
	return url, nil
}

func (g *gateway) BotName() string {
	return g.bot.Self.UserName
}

func (g *gateway) Stop() {
	g.bot.StopReceivingUpdates()
}
