package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uberzzr/claude-relay/src/relayd/entity"
)

func TestWorkspaceFingerprint(t *testing.T) {
	t.Run("stable", func(t *testing.T) {
		assert.Equal(t, WorkspaceFingerprint("/repo"), WorkspaceFingerprint("/repo"))
	})

	t.Run("fixed width", func(t *testing.T) {
		assert.Len(t, WorkspaceFingerprint("/repo"), 8)
		assert.Len(t, WorkspaceFingerprint("/a/very/long/workspace/path/indeed"), 8)
	})

	t.Run("cleaned before hashing", func(t *testing.T) {
		assert.Equal(t, WorkspaceFingerprint("/repo"), WorkspaceFingerprint("/repo/"))
		assert.Equal(t, WorkspaceFingerprint("/repo"), WorkspaceFingerprint("/repo/./"))
	})

	t.Run("distinct paths", func(t *testing.T) {
		assert.NotEqual(t, WorkspaceFingerprint("/repo"), WorkspaceFingerprint("/other"))
	})
}

func TestSessionKey(t *testing.T) {
	private := entity.ChatContext{ID: 42}
	group := entity.ChatContext{ID: 42, Group: true}

	t.Run("format", func(t *testing.T) {
		key := SessionKey("telegram", private, "/repo")
		assert.Equal(t, "telegram-42-"+WorkspaceFingerprint("/repo"), key)
	})

	t.Run("group marker", func(t *testing.T) {
		key := SessionKey("telegram", group, "/repo")
		assert.Equal(t, "telegram-group-42-"+WorkspaceFingerprint("/repo"), key)
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, SessionKey("telegram", private, "/repo"), SessionKey("telegram", private, "/repo"))
	})

	t.Run("distinct per chat", func(t *testing.T) {
		other := entity.ChatContext{ID: 43}
		assert.NotEqual(t, SessionKey("telegram", private, "/repo"), SessionKey("telegram", other, "/repo"))
	})

	t.Run("distinct per workspace", func(t *testing.T) {
		assert.NotEqual(t, SessionKey("telegram", private, "/repo"), SessionKey("telegram", private, "/other"))
	})

	t.Run("group and private never collide", func(t *testing.T) {
		assert.NotEqual(t, SessionKey("telegram", private, "/repo"), SessionKey("telegram", group, "/repo"))
	})

	t.Run("switching back restores the original key", func(t *testing.T) {
		before := SessionKey("telegram", private, "/repo")
		during := SessionKey("telegram", private, "/other")
		after := SessionKey("telegram", private, "/repo")
		assert.NotEqual(t, before, during)
		assert.Equal(t, before, after)
	})
}
