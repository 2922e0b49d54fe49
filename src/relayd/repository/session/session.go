package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
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

const _defaultSessionsFile = "sessions.json"

// Repository is the durable mapping from logical session key to the current
// assistant session handle. Records are created lazily, mutated only by
// MarkStarted and Reset, and never deleted; unbounded growth is an accepted
// tradeoff since keys are derived from human-paced (chat, workspace) pairs.
type Repository interface {
	// GetOrCreate returns the chat's current handle for the key, minting a
	// fresh one on first use. fresh reports whether the handle still awaits
	// its first successful invocation (the assistant is told to start
	// rather than resume); it stays true until MarkStarted. A non-nil error
	// is a durability warning only; the returned handle is valid for the
	// rest of the process lifetime regardless.
	GetOrCreate(ctx context.Context, key string) (handle string, fresh bool, err error)
	// MarkStarted records that the key's handle has been established by a
	// successful invocation, so later lookups report it as resumable.
	// Unknown keys are a no-op.
	MarkStarted(ctx context.Context, key string) error
	// Reset mints a fresh handle for the key, retaining the old one in the
	// record's PreviousHandle. The old handle is never restored. The new
	// handle starts unestablished, exactly like a first-use handle.
	Reset(ctx context.Context, key string) (string, error)
	// Info returns the record for the key, or ok=false when absent.
	Info(ctx context.Context, key string) (*entity.SessionRecord, bool)
	// Count returns the number of known session records.
	Count(ctx context.Context) int
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
	memstore map[string]*entity.SessionRecord
	path     string
	fs       fs.RelayFS
	clock    clock.Clock
	logger   *zap.SugaredLogger
	records  tally.Gauge
}

// New returns a Repository backed by the sessions JSON file from the "relay"
// configuration block. The file is loaded once; a missing, unreadable or
// corrupt file starts the repository empty.
func New(p Params) (Repository, error) {
	var cfg entity.RelayConfig
	if err := p.Config.Get(entity.RelayConfigKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting configuration for %q: %w", entity.RelayConfigKey, err)
	}
	if cfg.SessionsFile == "" {
		cfg.SessionsFile = _defaultSessionsFile
	}

	r := &repository{
		memstore: make(map[string]*entity.SessionRecord),
		path:     cfg.SessionsFile,
		fs:       p.FS,
		clock:    p.Clock,
		logger:   p.Logger.With("store", "sessions"),
		records:  p.Stats.SubScope("sessions").Gauge("records"),
	}
	r.load()
	return r, nil
}

func (r *repository) GetOrCreate(ctx context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.memstore[key]; ok {
		return rec.Handle, !rec.Started, nil
	}

	rec := &entity.SessionRecord{
		Key:       key,
		Handle:    uuid.Must(uuid.NewV4()).String(),
		CreatedAt: r.clock.Now(),
	}
	r.memstore[key] = rec
	r.records.Update(float64(len(r.memstore)))
	return rec.Handle, true, r.persist()
}

func (r *repository) MarkStarted(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.memstore[key]
	if !ok || rec.Started {
		return nil
	}
	rec.Started = true
	return r.persist()
}

func (r *repository) Reset(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := &entity.SessionRecord{
		Key:       key,
		Handle:    uuid.Must(uuid.NewV4()).String(),
		CreatedAt: r.clock.Now(),
	}
	if prev, ok := r.memstore[key]; ok {
		rec.PreviousHandle = prev.Handle
	}
	r.memstore[key] = rec
	r.records.Update(float64(len(r.memstore)))
	return rec.Handle, r.persist()
}

func (r *repository) Info(ctx context.Context, key string) (*entity.SessionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.memstore[key]
	if !ok {
		return nil, false
	}
	copied := *rec
	return &copied, true
}

func (r *repository) Count(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.memstore)
}

// load populates the in-memory mirror from disk. Failures are logged, not
// fatal: the relay starts with fresh state rather than refusing to run.
func (r *repository) load() {
	data, err := r.fs.ReadFile(r.path)
	if err != nil {
		r.logger.Infow("no session store loaded, starting empty", "path", r.path, "error", err)
		return
	}

	records := make(map[string]model.SessionRecord)
	if err := json.Unmarshal(data, &records); err != nil {
		r.logger.Warnw("session store unreadable, starting empty", "path", r.path, "error", err)
		return
	}

	for key, m := range records {
		r.memstore[key] = mapper.ModelToSessionRecord(key, m)
	}
	r.records.Update(float64(len(r.memstore)))
}

// persist rewrites the whole backing file. Mutations are human-paced, so a
// full rewrite per write is fine. Caller holds the lock.
func (r *repository) persist() error {
	records := make(map[string]model.SessionRecord, len(r.memstore))
	for key, rec := range r.memstore {
		records[key] = mapper.SessionRecordToModel(rec)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &relayerrors.PersistenceError{Path: r.path, Err: err}
	}
	if err := r.fs.WriteFile(r.path, data); err != nil {
		return &relayerrors.PersistenceError{Path: r.path, Err: err}
	}
	return nil
}
