package mapper

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/uberzzr/claude-relay/src/relayd/entity"
)

// _fingerprintLen is the hex length of the workspace fingerprint. 8 hex chars
// (32 bits) is plenty for the handful of directories a deployment maps.
const _fingerprintLen = 8

// WorkspaceFingerprint returns a short fixed-width digest of a workspace path.
// The path is cleaned first so "/repo" and "/repo/" fingerprint identically.
func WorkspaceFingerprint(path string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(path)))
	return hex.EncodeToString(sum[:])[:_fingerprintLen]
}

// SessionKey derives the logical session key for a chat operating in the
// given workspace. It is a pure function of its inputs: the same
// (chat, workspace) pair always re-derives the same key, so switching a
// chat's workspace selects a distinct session and switching back restores
// the prior one.
func SessionKey(prefix string, chat entity.ChatContext, workspacePath string) string {
	if chat.Group {
		return fmt.Sprintf("%s-group-%d-%s", prefix, chat.ID, WorkspaceFingerprint(workspacePath))
	}
	return fmt.Sprintf("%s-%d-%s", prefix, chat.ID, WorkspaceFingerprint(workspacePath))
}
