package registry

// AuditEvent describes one completed (or refused) registry operation for
// an external audit collaborator.
type AuditEvent struct {
	Action    string
	VersionID string
	User      string
	Outcome   string
}

// Outcomes reported to the audit sink.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuditSink receives a record for every history append. Implementations
// must be best-effort: the registry functions correctly with the
// collaborator absent and never fails an operation on a sink error.
type AuditSink interface {
	Record(event AuditEvent)
}

// NoopSink discards all audit events.
type NoopSink struct{}

// Record implements AuditSink.
func (NoopSink) Record(AuditEvent) {}
