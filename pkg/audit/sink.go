package audit

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/solaius/standards-registry/pkg/registry"
)

// Sink persists controller audit events to the audit store. Recording is
// best-effort: a write failure is logged and never propagates into the
// operation that produced the event.
type Sink struct {
	store  *Store
	logger *slog.Logger
}

// NewSink creates a Sink writing to store.
func NewSink(store *Store, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{store: store, logger: logger}
}

// Record implements registry.AuditSink.
func (s *Sink) Record(e registry.AuditEvent) {
	record := &EventRecord{
		ID:        uuid.New().String(),
		Action:    e.Action,
		VersionID: e.VersionID,
		UserName:  e.User,
		Outcome:   e.Outcome,
	}
	if err := s.store.Append(record); err != nil {
		s.logger.Error("audit event dropped", "action", e.Action, "versionId", e.VersionID, "error", err)
	}
}
