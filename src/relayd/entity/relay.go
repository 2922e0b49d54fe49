package entity

import (
	"time"
)

// Config keys for the blocks consumed by relayd packages.
const (
	RelayConfigKey         = "relay"
	TelegramConfigKey      = "telegram"
	TranscriptionConfigKey = "transcription"
)

// ChatContext identifies one unit of isolation: a single Telegram chat.
// It is never persisted directly; only mappings derived from it are.
type ChatContext struct {
	ID    int64
	Group bool
}

// SessionRecord is the current assistant session for one logical session key.
// Key is a pure function of (chat, workspace path), so switching a chat's
// workspace selects a different record and switching back selects the old one.
// Started reports whether the handle has been established by a successful
// invocation; an unstarted handle must be passed to the assistant as a new
// session, not resumed.
type SessionRecord struct {
	Key            string
	Handle         string
	CreatedAt      time.Time
	PreviousHandle string
	Started        bool
}

// WorkspaceMapping binds a chat to the directory the assistant operates in.
type WorkspaceMapping struct {
	ChatID int64
	Path   string
	SetAt  time.Time
}

// RelayConfig is the "relay" configuration block.
type RelayConfig struct {
	// Binary is the assistant executable, resolved via PATH.
	Binary string `yaml:"binary"`
	// DefaultWorkspace is used for chats with no workspace mapping.
	DefaultWorkspace string `yaml:"defaultWorkspace"`
	// SessionKeyPrefix namespaces session keys, e.g. "telegram".
	SessionKeyPrefix string `yaml:"sessionKeyPrefix"`
	// DefaultModel pins a model for every invocation. Empty lets the
	// assistant choose its own default.
	DefaultModel string `yaml:"defaultModel"`
	// APIKey, when set, is injected into the subprocess environment as
	// ANTHROPIC_API_KEY. When empty the subprocess inherits the parent
	// environment unchanged.
	APIKey string `yaml:"apiKey"`
	// InvocationTimeoutSeconds bounds each invocation wall-clock. Zero
	// means the 5 minute default.
	InvocationTimeoutSeconds int `yaml:"invocationTimeoutSeconds"`
	// SessionsFile and WorkspacesFile are the JSON backing stores.
	SessionsFile   string `yaml:"sessionsFile"`
	WorkspacesFile string `yaml:"workspacesFile"`
}

// TelegramConfig is the "telegram" configuration block.
type TelegramConfig struct {
	Token string `yaml:"token"`
	// Endpoint overrides the Bot API endpoint format string. Empty uses
	// the production Telegram API.
	Endpoint string `yaml:"endpoint"`
	// AllowedChats is the per-request authorization policy. Empty allows
	// every chat.
	AllowedChats []int64 `yaml:"allowedChats"`
	// PollTimeout is the long-poll timeout in seconds.
	PollTimeout int `yaml:"pollTimeout"`
}

// TranscriptionConfig is the "transcription" configuration block.
type TranscriptionConfig struct {
	APIKey string `yaml:"apiKey"`
	// BaseURL overrides the API base. Empty uses the OpenAI API.
	BaseURL string `yaml:"baseURL"`
	// Model transcribes audio, RefineModel cleans the transcript up.
	Model       string `yaml:"model"`
	RefineModel string `yaml:"refineModel"`
	// Refine toggles the text-refinement pass on the raw transcript.
	Refine bool `yaml:"refine"`
}
