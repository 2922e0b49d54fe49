package relay

import (
	"context"
	"fmt"

	tally "github.com/uber-go/tally/v4"
	"github.com/uberzzr/claude-relay/src/relayd/entity"
	"github.com/uberzzr/claude-relay/src/relayd/internal/admission"
	relayerrors "github.com/uberzzr/claude-relay/src/relayd/internal/errors"
	"github.com/uberzzr/claude-relay/src/relayd/internal/invoker"
	"github.com/uberzzr/claude-relay/src/relayd/mapper"
	"github.com/uberzzr/claude-relay/src/relayd/repository/session"
	"github.com/uberzzr/claude-relay/src/relayd/repository/workspace"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const _nameKey = "relay"

// Controller orchestrates one inbound chat message into at most one
// assistant invocation: admission, workspace resolution, session key
// derivation, session lookup, invocation, and outcome classification.
type Controller interface {
	// HandleMessage relays the chat's text to the assistant session for
	// its current workspace and returns the sanitized reply. It fails
	// with ChatBusyError when a previous invocation for the chat is still
	// in flight, or with the invoker's classified error.
	HandleMessage(ctx context.Context, chat entity.ChatContext, text string) (string, error)
	// SetWorkspace maps the chat to a directory after validating it.
	SetWorkspace(ctx context.Context, chat entity.ChatContext, path string) error
	// ClearWorkspace drops the chat's mapping, falling back to the
	// default workspace (and hence re-deriving any prior session there).
	ClearWorkspace(ctx context.Context, chat entity.ChatContext) error
	// Workspace returns the directory currently in effect for the chat.
	Workspace(ctx context.Context, chat entity.ChatContext) string
	// ResetSession discards the chat's current session for its current
	// workspace and returns the fresh handle.
	ResetSession(ctx context.Context, chat entity.ChatContext) (string, error)
	// SessionInfo returns the session record in effect for the chat, or
	// ok=false when the chat has not talked to the assistant yet.
	SessionInfo(ctx context.Context, chat entity.ChatContext) (*entity.SessionRecord, bool)
}

// Params defines the dependencies that will be available to this controller.
type Params struct {
	fx.In

	Config     config.Provider
	Logger     *zap.SugaredLogger
	Stats      tally.Scope
	Gate       admission.Gate
	Sessions   session.Repository
	Workspaces workspace.Repository
	Invoker    invoker.Invoker
}

type controller struct {
	logger     *zap.SugaredLogger
	cfg        entity.RelayConfig
	gate       admission.Gate
	sessions   session.Repository
	workspaces workspace.Repository
	invoker    invoker.Invoker

	messages tally.Counter
	relayed  tally.Counter
}

// New controller for relay orchestration.
func New(p Params) (Controller, error) {
	var cfg entity.RelayConfig
	if err := p.Config.Get(entity.RelayConfigKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting configuration for %q: %w", entity.RelayConfigKey, err)
	}
	if cfg.SessionKeyPrefix == "" {
		cfg.SessionKeyPrefix = "telegram"
	}

	scope := p.Stats.SubScope(_nameKey)
	return &controller{
		logger:     p.Logger.With("component", _nameKey),
		cfg:        cfg,
		gate:       p.Gate,
		sessions:   p.Sessions,
		workspaces: p.Workspaces,
		invoker:    p.Invoker,
		messages:   scope.Counter("messages"),
		relayed:    scope.Counter("relayed"),
	}, nil
}

func (c *controller) HandleMessage(ctx context.Context, chat entity.ChatContext, text string) (string, error) {
	c.messages.Inc(1)

	if !c.gate.TryAcquire(chat.ID) {
		return "", &relayerrors.ChatBusyError{ChatID: chat.ID}
	}
	// Release on every exit path; a leaked slot would lock the chat out
	// permanently.
	defer c.gate.Release(chat.ID)

	dir := c.workspaces.Get(ctx, chat.ID, c.cfg.DefaultWorkspace)
	key := mapper.SessionKey(c.cfg.SessionKeyPrefix, chat, dir)

	handle, fresh, err := c.sessions.GetOrCreate(ctx, key)
	if err != nil {
		// Durability warning only; the handle is valid for this run.
		c.logger.Warnw("session store write failed", "key", key, "error", err)
	}

	c.logger.Infow("relaying message",
		"chat", chat.ID,
		"key", key,
		"newSession", fresh,
		"dir", dir,
	)

	out, err := c.invoker.Invoke(ctx, invoker.Request{
		SessionID: handle,
		Resume:    !fresh,
		Prompt:    text,
		Dir:       dir,
		Model:     c.cfg.DefaultModel,
	})
	if err != nil {
		// A fresh handle stays unestablished, so the retry re-issues it
		// as a new session instead of resuming a conversation the
		// assistant never saw.
		return "", err
	}
	if fresh {
		if err := c.sessions.MarkStarted(ctx, key); err != nil {
			c.logger.Warnw("session store write failed", "key", key, "error", err)
		}
	}
	c.relayed.Inc(1)
	return out, nil
}

func (c *controller) SetWorkspace(ctx context.Context, chat entity.ChatContext, path string) error {
	return c.workspaces.Set(ctx, chat.ID, path)
}

func (c *controller) ClearWorkspace(ctx context.Context, chat entity.ChatContext) error {
	return c.workspaces.Remove(ctx, chat.ID)
}

func (c *controller) Workspace(ctx context.Context, chat entity.ChatContext) string {
	return c.workspaces.Get(ctx, chat.ID, c.cfg.DefaultWorkspace)
}

func (c *controller) ResetSession(ctx context.Context, chat entity.ChatContext) (string, error) {
	dir := c.workspaces.Get(ctx, chat.ID, c.cfg.DefaultWorkspace)
	key := mapper.SessionKey(c.cfg.SessionKeyPrefix, chat, dir)
	return c.sessions.Reset(ctx, key)
}

func (c *controller) SessionInfo(ctx context.Context, chat entity.ChatContext) (*entity.SessionRecord, bool) {
	dir := c.workspaces.Get(ctx, chat.ID, c.cfg.DefaultWorkspace)
	key := mapper.SessionKey(c.cfg.SessionKeyPrefix, chat, dir)
	return c.sessions.Info(ctx, key)
}
