package ledger

import "time"

// Actions recorded in the history log.
const (
	ActionCreate     = "create"
	ActionActivate   = "activate"
	ActionMarkStable = "mark_stable"
	ActionRollback   = "rollback"
)

// Version is one recorded revision of one artifact file. The JSON field
// names are part of the durable ledger format and are read by external
// tooling (management consoles, audit pipelines); do not rename them.
type Version struct {
	VersionID     string    `json:"version_id"`
	Timestamp     time.Time `json:"timestamp"`
	File          string    `json:"file"`
	Hash          string    `json:"hash"`
	Description   string    `json:"description"`
	Active        bool      `json:"active"`
	Stable        bool      `json:"stable"`
	Compatibility []string  `json:"compatibility"`
}

// clone returns a deep copy so callers never alias ledger-owned state.
func (v Version) clone() Version {
	out := v
	if v.Compatibility != nil {
		out.Compatibility = append([]string(nil), v.Compatibility...)
	}
	return out
}

// HistoryEntry is an append-only audit record of one ledger action.
type HistoryEntry struct {
	Action    string    `json:"action"`
	VersionID string    `json:"version_id"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
}

// document is the durable on-disk shape of the ledger.
type document struct {
	Versions []Version      `json:"versions"`
	History  []HistoryEntry `json:"history"`
}
