package model

import (
	"time"
)

// SessionRecord is the repository layer model for one session mapping, as
// stored in the sessions JSON file keyed by logical session key. Unknown
// extra fields in the file are ignored on load for forward compatibility.
type SessionRecord struct {
	Handle         string    `json:"handle"`
	CreatedAt      time.Time `json:"createdAt"`
	PreviousHandle string    `json:"previousHandle,omitempty"`
	Started        bool      `json:"started"`
}

// WorkspaceMapping is the repository layer model for one workspace mapping,
// as stored in the workspaces JSON file keyed by stringified chat id.
type WorkspaceMapping struct {
	Path  string    `json:"path"`
	SetAt time.Time `json:"setAt"`
}
