package statusfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const _configKeyStatusFile = "statusFilePath"

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// StatusFile manages the contents of a single relay status file. It holds
// runtime facts (pid, start time, bot identity) for reference by external
// tooling, written at service launch and removed at shutdown.
type StatusFile interface {
	UpdateField(key string, value string) error
}

type module struct {
	statusfile   string
	logger       *zap.SugaredLogger
	fileContents map[string]string
	mu           sync.Mutex
}

// Params define values to be used by StatusFile.
type Params struct {
	fx.In

	Config    config.Provider
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
}

// New creates a new StatusFile which manages contents of a single status file.
func New(p Params) (StatusFile, error) {
	m := module{
		logger:       p.Logger,
		fileContents: make(map[string]string),
	}

	if err := m.processConfig(p.Config); err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: m.OnStop,
	})

	return &m, nil
}

func (m *module) OnStop(ctx context.Context) error {
	if m.statusfile != "" {
		if err := os.Remove(m.statusfile); err != nil {
			return err
		}
	}

	return nil
}

func (m *module) UpdateField(key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fileContents[key] = value
	jsonOutput, err := json.Marshal(m.fileContents)
	if err != nil {
		return fmt.Errorf("marshalling json: %w", err)
	}

	if err := os.WriteFile(m.statusfile, jsonOutput, 0644); err != nil {
		return fmt.Errorf("writing status file: %w", err)
	}
	m.logger.Infow("status saved", zap.String("file", m.statusfile), zap.String(key, value))
	return nil
}

func (m *module) processConfig(cfg config.Provider) error {
	val := cfg.Get(_configKeyStatusFile)
	if err := val.Populate(&m.statusfile); err != nil {
		// incorrectly formatted config
		return fmt.Errorf("getting config field %q: %w", _configKeyStatusFile, err)
	}

	if m.statusfile == "" {
		// yaml is missing either the key or value
		return fmt.Errorf("missing field %q in config", _configKeyStatusFile)
	}

	return nil
}
