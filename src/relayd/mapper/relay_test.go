package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uberzzr/claude-relay/src/relayd/entity"
	"github.com/uberzzr/claude-relay/src/relayd/model"
)

func TestSessionRecordRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &entity.SessionRecord{
		Key:            "telegram-42-abcd1234",
		Handle:         "f81d4fae-7dec-11d0-a765-00a0c91e6bf6",
		CreatedAt:      created,
		PreviousHandle: "old-handle",
		Started:        true,
	}

	m := SessionRecordToModel(rec)
	back := ModelToSessionRecord(rec.Key, m)
	assert.Equal(t, rec, back)
}

func TestModelToWorkspace(t *testing.T) {
	setAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid key", func(t *testing.T) {
		w, ok := ModelToWorkspace("42", model.WorkspaceMapping{Path: "/repo", SetAt: setAt})
		assert.True(t, ok)
		assert.Equal(t, entity.WorkspaceMapping{ChatID: 42, Path: "/repo", SetAt: setAt}, w)
	})

	t.Run("negative chat id", func(t *testing.T) {
		w, ok := ModelToWorkspace("-100123", model.WorkspaceMapping{Path: "/repo", SetAt: setAt})
		assert.True(t, ok)
		assert.Equal(t, int64(-100123), w.ChatID)
	})

	t.Run("malformed key", func(t *testing.T) {
		_, ok := ModelToWorkspace("not-a-number", model.WorkspaceMapping{Path: "/repo"})
		assert.False(t, ok)
	})
}

func TestWorkspaceRoundTrip(t *testing.T) {
	w := entity.WorkspaceMapping{
		ChatID: -100123,
		Path:   "/repo",
		SetAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	back, ok := ModelToWorkspace(ChatIDKey(w.ChatID), WorkspaceToModel(w))
	assert.True(t, ok)
	assert.Equal(t, w, back)
}
