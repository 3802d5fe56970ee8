package registry

import "errors"

// Machine-readable error codes for the typed failure kinds of the
// version store. The HTTP layer and CLI translate these into their own
// surfaces; the core never produces HTTP semantics itself.
const (
	CodeArtifactMissing      = "ARTIFACT_MISSING"
	CodeSourceMissing        = "SOURCE_MISSING"
	CodeBackupConflict       = "BACKUP_CONFLICT"
	CodeSnapshotMissing      = "SNAPSHOT_MISSING"
	CodeVersionNotFound      = "VERSION_NOT_FOUND"
	CodeMalformedVersionID   = "MALFORMED_VERSION_ID"
	CodeIntegrityViolation   = "INTEGRITY_VIOLATION"
	CodeIrrecoverableVersion = "IRRECOVERABLE_VERSION"
	CodeNoStableVersion      = "NO_STABLE_VERSION"
	CodeInvalidRange         = "INVALID_RANGE"
	CodePersistenceFailure   = "PERSISTENCE_FAILURE"
)

// Error is a structured registry failure with a machine-readable code.
type Error struct {
	Code      string `json:"code"`
	VersionID string `json:"versionId,omitempty"`
	Message   string `json:"message"`
	Err       error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the registry error code carried by err, or "" when err
// is not a registry failure.
func CodeOf(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsCode reports whether err carries the given registry error code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
