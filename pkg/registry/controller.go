// Package registry is the public-facing orchestrator of the versioned
// standards store. It composes the version ledger and the backup store
// and enforces the store's invariants: a single active version, integrity
// verification before activation, backup-based recovery on rollback, and
// all-or-nothing mutations (snapshot + ledger append + persist succeed
// together or leave no visible change).
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/solaius/standards-registry/pkg/backup"
	"github.com/solaius/standards-registry/pkg/digest"
	"github.com/solaius/standards-registry/pkg/ledger"
	"github.com/solaius/standards-registry/pkg/semver"
)

const (
	// DefaultBackupDirName is the snapshot directory under the repository root.
	DefaultBackupDirName = "version_backups"

	// DefaultLockFileName is the exclusive-access lock file under the
	// repository root.
	DefaultLockFileName = ".standards_registry.lock"

	// FirstVersionID is assigned to the first version of an empty ledger.
	FirstVersionID = "1.0.0"
)

// Controller orchestrates create, activate, rollback, compare and
// changelog operations for one repository root. Each public operation
// acquires the repository lock, runs to completion including its durable
// flush, and releases the lock before returning.
type Controller struct {
	repo    string
	ledger  *ledger.Ledger
	backups *backup.Store
	locker  Locker
	sink    AuditSink
	logger  *slog.Logger
	actor   string
}

type options struct {
	ledgerFile string
	backupDir  string
	locker     Locker
	sink       AuditSink
	logger     *slog.Logger
	actor      string
}

// Option configures a Controller.
type Option func(*options)

// WithLedgerFile overrides the ledger file name under the repository root.
func WithLedgerFile(name string) Option { return func(o *options) { o.ledgerFile = name } }

// WithBackupDir overrides the snapshot directory name under the
// repository root.
func WithBackupDir(name string) Option { return func(o *options) { o.backupDir = name } }

// WithLocker overrides the exclusive-access scope around public
// operations. The default is an OS file lock under the repository root.
func WithLocker(l Locker) Option { return func(o *options) { o.locker = l } }

// WithAuditSink installs an audit collaborator notified on every history
// append. The default sink discards events.
func WithAuditSink(s AuditSink) Option { return func(o *options) { o.sink = s } }

// WithLogger injects the observability sink for the controller and its
// sub-components.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithActor sets the operator identity recorded in history entries. The
// default is the current OS user.
func WithActor(actor string) Option { return func(o *options) { o.actor = actor } }

// New opens (or initializes) the versioned store rooted at repoPath.
func New(repoPath string, opts ...Option) (*Controller, error) {
	o := options{
		ledgerFile: ledger.DefaultFileName,
		backupDir:  DefaultBackupDirName,
		sink:       NoopSink{},
		logger:     slog.Default(),
		actor:      currentUser(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if err := os.MkdirAll(repoPath, 0o755); err != nil {
		return nil, fmt.Errorf("create repository root: %w", err)
	}

	backups, err := backup.NewStore(filepath.Join(repoPath, o.backupDir), o.logger)
	if err != nil {
		return nil, err
	}

	led, err := ledger.Open(filepath.Join(repoPath, o.ledgerFile), backups.Dir(), o.logger)
	if err != nil {
		return nil, err
	}

	locker := o.locker
	if locker == nil {
		locker = NewFileLocker(filepath.Join(repoPath, DefaultLockFileName))
	}

	return &Controller{
		repo:    repoPath,
		ledger:  led,
		backups: backups,
		locker:  locker,
		sink:    o.sink,
		logger:  o.logger,
		actor:   o.actor,
	}, nil
}

// As returns a controller that attributes operations to the given actor.
// The returned controller shares all state with the original.
func (c *Controller) As(actor string) *Controller {
	if actor == "" {
		return c
	}
	cc := *c
	cc.actor = actor
	return &cc
}

// Repo returns the repository root path.
func (c *Controller) Repo() string { return c.repo }

// Create records a new version of the artifact at the repository-relative
// path. It hashes the live content, assigns the next id from the latest
// recorded version (or 1.0.0 for an empty ledger), writes a snapshot and
// appends the ledger entry. If any step fails, no ledger mutation is
// visible.
func (c *Controller) Create(ctx context.Context, artifactPath, description string, kind semver.Bump) (ledger.Version, error) {
	var created ledger.Version
	err := c.locker.WithLock(ctx, func() error {
		v, err := c.doCreate(artifactPath, description, kind)
		if err != nil {
			return err
		}
		created = v
		return nil
	})
	c.audit(ledger.ActionCreate, created.VersionID, err)
	return created, err
}

func (c *Controller) doCreate(artifactPath, description string, kind semver.Bump) (ledger.Version, error) {
	abs := c.artifactAbs(artifactPath)
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return ledger.Version{}, &Error{
				Code:    CodeArtifactMissing,
				Message: fmt.Sprintf("artifact %s does not exist", artifactPath),
				Err:     err,
			}
		}
		return ledger.Version{}, fmt.Errorf("read artifact: %w", err)
	}

	id := FirstVersionID
	if latest, ok := c.ledger.Latest(); ok {
		cur, err := semver.Parse(latest.VersionID)
		if err != nil {
			return ledger.Version{}, &Error{
				Code:      CodeMalformedVersionID,
				VersionID: latest.VersionID,
				Message:   fmt.Sprintf("latest recorded version id %q is malformed", latest.VersionID),
				Err:       err,
			}
		}
		id = cur.Increment(kind).String()
	}

	v := ledger.Version{
		VersionID:   id,
		Timestamp:   time.Now().UTC(),
		File:        artifactPath,
		Hash:        digest.Bytes(data),
		Description: description,
		// Informational only, never enforced; every version declares
		// compatibility with the base version.
		Compatibility: []string{FirstVersionID},
	}

	// Snapshot before touching the ledger: a failed snapshot must leave
	// the ledger unchanged.
	if err := c.backups.Snapshot(abs, id); err != nil {
		return ledger.Version{}, wrapBackupError(err, id)
	}

	undo := c.ledger.Snapshot()
	c.ledger.AppendVersion(v)
	c.appendHistory(ledger.ActionCreate, id)
	if err := c.persist(undo); err != nil {
		_ = c.backups.Discard(abs, id)
		return ledger.Version{}, err
	}

	c.logger.Info("version created", "version", id, "artifact", artifactPath, "hash", v.Hash)
	return v, nil
}

// Activate makes the version the single active one ledger-wide. The live
// artifact's hash is recomputed and compared against the recorded hash
// first; a drifted or missing file fails with an integrity violation and
// leaves activation to an explicit rollback.
func (c *Controller) Activate(ctx context.Context, versionID string) error {
	err := c.locker.WithLock(ctx, func() error {
		return c.doActivate(versionID)
	})
	c.audit(ledger.ActionActivate, versionID, err)
	return err
}

func (c *Controller) doActivate(versionID string) error {
	v, ok := c.ledger.Find(versionID)
	if !ok {
		return notFound(versionID)
	}
	if err := c.verifyIntegrity(v); err != nil {
		return err
	}

	undo := c.ledger.Snapshot()
	if err := c.ledger.SetActive(versionID); err != nil {
		return notFound(versionID)
	}
	c.appendHistory(ledger.ActionActivate, versionID)
	if err := c.persist(undo); err != nil {
		return err
	}

	c.logger.Info("version activated", "version", versionID)
	return nil
}

// RollbackTo activates the version, recovering its content from the
// backup store when the live artifact has drifted or disappeared. A
// version whose snapshot is also missing is unrecoverable, which is a
// distinct failure from the version id being unknown.
func (c *Controller) RollbackTo(ctx context.Context, versionID string) error {
	err := c.locker.WithLock(ctx, func() error {
		return c.doRollbackTo(versionID)
	})
	c.audit(ledger.ActionRollback, versionID, err)
	return err
}

func (c *Controller) doRollbackTo(versionID string) error {
	v, ok := c.ledger.Find(versionID)
	if !ok {
		return notFound(versionID)
	}

	if err := c.verifyIntegrity(v); err != nil {
		if !IsCode(err, CodeIntegrityViolation) {
			return err
		}
		abs := c.artifactAbs(v.File)
		if rerr := c.backups.Restore(abs, versionID); rerr != nil {
			if errors.Is(rerr, backup.ErrSnapshotMissing) {
				return &Error{
					Code:      CodeIrrecoverableVersion,
					VersionID: versionID,
					Message:   fmt.Sprintf("version %s failed integrity verification and has no snapshot to restore", versionID),
					Err:       rerr,
				}
			}
			return fmt.Errorf("restore version %s: %w", versionID, rerr)
		}
		// The snapshot holds the exact recorded bytes, so the re-check
		// only fails if the snapshot itself does not match the ledger.
		if err := c.verifyIntegrity(v); err != nil {
			return &Error{
				Code:      CodeIrrecoverableVersion,
				VersionID: versionID,
				Message:   fmt.Sprintf("restored content for version %s does not match its recorded hash", versionID),
				Err:       err,
			}
		}
		c.logger.Info("version content restored from snapshot", "version", versionID)
	}

	undo := c.ledger.Snapshot()
	if err := c.ledger.SetActive(versionID); err != nil {
		return notFound(versionID)
	}
	c.appendHistory(ledger.ActionActivate, versionID)
	c.appendHistory(ledger.ActionRollback, versionID)
	if err := c.persist(undo); err != nil {
		return err
	}

	c.logger.Info("rolled back", "version", versionID)
	return nil
}

// RollbackToLastStable rolls back to the stable version with the greatest
// semantic-version id. It returns the id rolled back to.
func (c *Controller) RollbackToLastStable(ctx context.Context) (string, error) {
	var target string
	err := c.locker.WithLock(ctx, func() error {
		stable := c.ledger.StableVersions()
		if len(stable) == 0 {
			return &Error{Code: CodeNoStableVersion, Message: "no stable version recorded"}
		}
		var (
			bestID  string
			bestVer semver.Version
		)
		for _, v := range stable {
			id, err := semver.Parse(v.VersionID)
			if err != nil {
				c.logger.Warn("skipping stable version with unparseable id", "id", v.VersionID)
				continue
			}
			if bestID == "" || bestVer.Less(id) {
				bestID, bestVer = v.VersionID, id
			}
		}
		if bestID == "" {
			return &Error{Code: CodeNoStableVersion, Message: "no stable version with a well-formed id"}
		}
		target = bestID
		return c.doRollbackTo(bestID)
	})
	if target != "" {
		c.audit(ledger.ActionRollback, target, err)
	}
	return target, err
}

// MarkStable marks the version as a safe rollback target. Stability is a
// policy annotation, not a content mutation, so no integrity verification
// is performed. The call is idempotent.
func (c *Controller) MarkStable(ctx context.Context, versionID string) error {
	err := c.locker.WithLock(ctx, func() error {
		return c.doMarkStable(versionID)
	})
	c.audit(ledger.ActionMarkStable, versionID, err)
	return err
}

func (c *Controller) doMarkStable(versionID string) error {
	if _, ok := c.ledger.Find(versionID); !ok {
		return notFound(versionID)
	}

	undo := c.ledger.Snapshot()
	if err := c.ledger.SetStable(versionID); err != nil {
		return notFound(versionID)
	}
	c.appendHistory(ledger.ActionMarkStable, versionID)
	if err := c.persist(undo); err != nil {
		return err
	}

	c.logger.Info("version marked stable", "version", versionID)
	return nil
}

// Read accessors are lock-free: they return the in-memory state as of
// Open or the last mutation through this controller. The ledger file is
// loaded once at construction, so a writer in another process is only
// observed after reopening the repository.

// Get returns the recorded version with the given id.
func (c *Controller) Get(versionID string) (ledger.Version, error) {
	v, ok := c.ledger.Find(versionID)
	if !ok {
		return ledger.Version{}, notFound(versionID)
	}
	return v, nil
}

// Versions returns all recorded versions in creation order.
func (c *Controller) Versions() []ledger.Version { return c.ledger.Versions() }

// Active returns the currently active version, if any.
func (c *Controller) Active() (ledger.Version, bool) { return c.ledger.Active() }

// History returns the full history-of-actions log in append order.
func (c *Controller) History() []ledger.HistoryEntry { return c.ledger.History() }

// verifyIntegrity recomputes the live artifact's hash and compares it to
// the recorded, write-once content hash.
func (c *Controller) verifyIntegrity(v ledger.Version) error {
	current, err := digest.File(c.artifactAbs(v.File))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Error{
				Code:      CodeIntegrityViolation,
				VersionID: v.VersionID,
				Message:   fmt.Sprintf("live artifact %s is missing", v.File),
				Err:       err,
			}
		}
		return fmt.Errorf("verify integrity of %s: %w", v.VersionID, err)
	}
	if current != v.Hash {
		return &Error{
			Code:      CodeIntegrityViolation,
			VersionID: v.VersionID,
			Message:   fmt.Sprintf("artifact %s has drifted from the recorded hash of version %s", v.File, v.VersionID),
		}
	}
	return nil
}

// persist flushes the ledger, rolling the in-memory mutation back on
// failure so memory and disk never diverge silently.
func (c *Controller) persist(undo ledger.Memento) error {
	if err := c.ledger.Save(); err != nil {
		c.ledger.Restore(undo)
		return &Error{
			Code:    CodePersistenceFailure,
			Message: "persist ledger",
			Err:     err,
		}
	}
	return nil
}

func (c *Controller) appendHistory(action, versionID string) {
	c.ledger.AppendHistory(ledger.HistoryEntry{
		Action:    action,
		VersionID: versionID,
		Timestamp: time.Now().UTC(),
		User:      c.actor,
	})
}

// audit notifies the sink of a completed operation. Best-effort only.
func (c *Controller) audit(action, versionID string, opErr error) {
	outcome := OutcomeSuccess
	if opErr != nil {
		outcome = OutcomeFailure
	}
	c.sink.Record(AuditEvent{
		Action:    action,
		VersionID: versionID,
		User:      c.actor,
		Outcome:   outcome,
	})
}

func (c *Controller) artifactAbs(artifactPath string) string {
	if filepath.IsAbs(artifactPath) {
		return artifactPath
	}
	return filepath.Join(c.repo, artifactPath)
}

func notFound(versionID string) error {
	return &Error{
		Code:      CodeVersionNotFound,
		VersionID: versionID,
		Message:   fmt.Sprintf("version %s not found", versionID),
	}
}

func wrapBackupError(err error, versionID string) error {
	switch {
	case errors.Is(err, backup.ErrSourceMissing):
		return &Error{Code: CodeSourceMissing, VersionID: versionID, Message: "snapshot source missing", Err: err}
	case errors.Is(err, backup.ErrConflict):
		return &Error{Code: CodeBackupConflict, VersionID: versionID, Message: "snapshot already recorded with different content", Err: err}
	case errors.Is(err, backup.ErrSnapshotMissing):
		return &Error{Code: CodeSnapshotMissing, VersionID: versionID, Message: "snapshot missing", Err: err}
	}
	return err
}

// currentUser resolves the operator identity recorded in history entries.
func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}
