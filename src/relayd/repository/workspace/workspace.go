package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	tally "github.com/uber-go/tally/v4"
	"github.com/uberzzr/claude-relay/src/relayd/entity"
	"github.com/uberzzr/claude-relay/src/relayd/internal/clock"
	relayerrors "github.com/uberzzr/claude-relay/src/relayd/internal/errors"
	"github.com/uberzzr/claude-relay/src/relayd/internal/fs"
	"github.com/uberzzr/claude-relay/src/relayd/mapper"
	"github.com/uberzzr/claude-relay/src/relayd/model"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const _defaultWorkspacesFile = "workspaces.json"

// Repository is the durable mapping from chat id to the directory the
// assistant operates in for that chat. Paths are validated at assignment
// time only; a directory removed later surfaces as an invocation failure,
// not a lookup failure.
type Repository interface {
	// Set validates and upserts the chat's workspace. It fails with
	// InvalidPathError when the path is not an existing directory, leaving
	// any prior mapping unchanged. A PersistenceError return is a
	// durability warning: the mapping is applied in memory regardless.
	Set(ctx context.Context, chatID int64, path string) error
	// Get returns the chat's workspace, or fallback when none is mapped.
	// It never fails.
	Get(ctx context.Context, chatID int64, fallback string) string
	// Remove drops the chat's mapping. Removing an absent mapping is not
	// an error.
	Remove(ctx context.Context, chatID int64) error
	// List returns a snapshot of all mappings for diagnostics.
	List(ctx context.Context) map[int64]entity.WorkspaceMapping
}

// Params defines the dependencies of the repository.
type Params struct {
	fx.In

	Config config.Provider
	Logger *zap.SugaredLogger
	FS     fs.RelayFS
	Clock  clock.Clock
	Stats  tally.Scope
}

type repository struct {
	mu       sync.Mutex
	memstore map[int64]entity.WorkspaceMapping
	path     string
	fs       fs.RelayFS
	clock    clock.Clock
	logger   *zap.SugaredLogger
	mappings tally.Gauge
}

// New returns a Repository backed by the workspaces JSON file from the
// "relay" configuration block. The file is loaded once; a missing,
// unreadable or corrupt file starts the repository empty.
func New(p Params) (Repository, error) {
	var cfg entity.RelayConfig
	if err := p.Config.Get(entity.RelayConfigKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting configuration for %q: %w", entity.RelayConfigKey, err)
	}
	if cfg.WorkspacesFile == "" {
		cfg.WorkspacesFile = _defaultWorkspacesFile
	}

	r := &repository{
		memstore: make(map[int64]entity.WorkspaceMapping),
		path:     cfg.WorkspacesFile,
		fs:       p.FS,
		clock:    p.Clock,
		logger:   p.Logger.With("store", "workspaces"),
		mappings: p.Stats.SubScope("workspaces").Gauge("mappings"),
	}
	r.load()
	return r, nil
}

func (r *repository) Set(ctx context.Context, chatID int64, path string) error {
	path = filepath.Clean(path)
	ok, err := r.fs.DirExists(path)
	if err != nil || !ok {
		return &relayerrors.InvalidPathError{Path: path}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.memstore[chatID] = entity.WorkspaceMapping{
		ChatID: chatID,
		Path:   path,
		SetAt:  r.clock.Now(),
	}
	r.mappings.Update(float64(len(r.memstore)))
	return r.persist()
}

func (r *repository) Get(ctx context.Context, chatID int64, fallback string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.memstore[chatID]; ok {
		return m.Path
	}
	return fallback
}

func (r *repository) Remove(ctx context.Context, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.memstore[chatID]; !ok {
		return nil
	}
	delete(r.memstore, chatID)
	r.mappings.Update(float64(len(r.memstore)))
	return r.persist()
}

func (r *repository) List(ctx context.Context) map[int64]entity.WorkspaceMapping {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[int64]entity.WorkspaceMapping, len(r.memstore))
	for id, m := range r.memstore {
		snapshot[id] = m
	}
	return snapshot
}

// load populates the in-memory mirror from disk. Failures are logged, not
// fatal.
func (r *repository) load() {
	data, err := r.fs.ReadFile(r.path)
	if err != nil {
		r.logger.Infow("no workspace store loaded, starting empty", "path", r.path, "error", err)
		return
	}

	mappings := make(map[string]model.WorkspaceMapping)
	if err := json.Unmarshal(data, &mappings); err != nil {
		r.logger.Warnw("workspace store unreadable, starting empty", "path", r.path, "error", err)
		return
	}

	for key, m := range mappings {
		entry, ok := mapper.ModelToWorkspace(key, m)
		if !ok {
			r.logger.Warnw("skipping workspace entry with malformed chat id", "key", key)
			continue
		}
		r.memstore[entry.ChatID] = entry
	}
	r.mappings.Update(float64(len(r.memstore)))
}

// persist rewrites the whole backing file. Caller holds the lock.
func (r *repository) persist() error {
	mappings := make(map[string]model.WorkspaceMapping, len(r.memstore))
	for id, m := range r.memstore {
		mappings[mapper.ChatIDKey(id)] = mapper.WorkspaceToModel(m)
	}

	data, err := json.MarshalIndent(mappings, "", "  ")
	if err != nil {
		return &relayerrors.PersistenceError{Path: r.path, Err: err}
	}
	if err := r.fs.WriteFile(r.path, data); err != nil {
		return &relayerrors.PersistenceError{Path: r.path, Err: err}
	}
	return nil
}
