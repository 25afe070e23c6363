package model

import "time"

// JournalAction names a recorded use case.
type JournalAction string

const (
	ActionSave        JournalAction = "save"
	ActionRestore     JournalAction = "restore"
	ActionManualLogin JournalAction = "manual_login"
	ActionLogout      JournalAction = "logout"
	ActionDelete      JournalAction = "delete"
	ActionRefreshAll  JournalAction = "refresh_all"
	ActionExport      JournalAction = "export"
)

// JournalEntry is one row of the operation journal.
type JournalEntry struct {
	ID        int64         `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Action    JournalAction `json:"action"`
	Email     string        `json:"email,omitempty"`
	Succeeded bool          `json:"succeeded"`
	Detail    string        `json:"detail,omitempty"`
}
