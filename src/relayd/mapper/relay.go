package mapper

import (
	"strconv"

	"github.com/uberzzr/claude-relay/src/relayd/entity"
	"github.com/uberzzr/claude-relay/src/relayd/model"
)

// SessionRecordToModel converts an entity session record to its on-disk model.
func SessionRecordToModel(r *entity.SessionRecord) model.SessionRecord {
	return model.SessionRecord{
		Handle:         r.Handle,
		CreatedAt:      r.CreatedAt,
		PreviousHandle: r.PreviousHandle,
		Started:        r.Started,
	}
}

// ModelToSessionRecord converts an on-disk session model back to an entity.
func ModelToSessionRecord(key string, m model.SessionRecord) *entity.SessionRecord {
	return &entity.SessionRecord{
		Key:            key,
		Handle:         m.Handle,
		CreatedAt:      m.CreatedAt,
		PreviousHandle: m.PreviousHandle,
		Started:        m.Started,
	}
}

// WorkspaceToModel converts an entity workspace mapping to its on-disk model.
func WorkspaceToModel(w entity.WorkspaceMapping) model.WorkspaceMapping {
	return model.WorkspaceMapping{
		Path:  w.Path,
		SetAt: w.SetAt,
	}
}

// ModelToWorkspace converts an on-disk workspace model back to an entity.
// The chat id arrives as the stringified JSON object key; a malformed key
// reports ok=false so the caller can skip the entry.
func ModelToWorkspace(key string, m model.WorkspaceMapping) (entity.WorkspaceMapping, bool) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return entity.WorkspaceMapping{}, false
	}
	return entity.WorkspaceMapping{
		ChatID: id,
		Path:   m.Path,
		SetAt:  m.SetAt,
	}, true
}

// ChatIDKey returns the JSON object key for a chat id.
func ChatIDKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
