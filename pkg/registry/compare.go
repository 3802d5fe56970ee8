package registry

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/solaius/standards-registry/pkg/ledger"
)

// Comparison is the result of diffing two recorded versions.
type Comparison struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Similarity float64 `json:"similarity"`
	Additions  int     `json:"additions"`
	Deletions  int     `json:"deletions"`
	Diff       string  `json:"diff"`
}

// Compare computes a line-oriented unified diff and a similarity ratio in
// [0,1] between two recorded versions. Content is resolved from each
// version's snapshot when one exists, falling back to the live artifact,
// so versions of the same artifact diff meaningfully against each other.
func (c *Controller) Compare(ctx context.Context, fromID, toID string) (Comparison, error) {
	var out Comparison
	err := c.locker.WithLock(ctx, func() error {
		cmp, err := c.doCompare(fromID, toID)
		if err != nil {
			return err
		}
		out = cmp
		return nil
	})
	return out, err
}

func (c *Controller) doCompare(fromID, toID string) (Comparison, error) {
	from, ok := c.ledger.Find(fromID)
	if !ok {
		return Comparison{}, notFound(fromID)
	}
	to, ok := c.ledger.Find(toID)
	if !ok {
		return Comparison{}, notFound(toID)
	}

	fromContent, err := c.contentFor(from)
	if err != nil {
		return Comparison{}, err
	}
	toContent, err := c.contentFor(to)
	if err != nil {
		return Comparison{}, err
	}

	diffText, adds, dels, err := unifiedDiff(fromID, toID, string(fromContent), string(toContent))
	if err != nil {
		return Comparison{}, fmt.Errorf("compute diff: %w", err)
	}

	cmp := Comparison{
		From:       fromID,
		To:         toID,
		Similarity: similarity(string(fromContent), string(toContent)),
		Additions:  adds,
		Deletions:  dels,
		Diff:       diffText,
	}
	c.logger.Info("versions compared",
		"from", fromID, "to", toID, "similarity", cmp.Similarity)
	return cmp, nil
}

// contentFor resolves readable bytes for a version: the stored snapshot
// when one exists, otherwise the live artifact. A version with neither is
// unrecoverable.
func (c *Controller) contentFor(v ledger.Version) ([]byte, error) {
	abs := c.artifactAbs(v.File)
	if c.backups.Exists(abs, v.VersionID) {
		return c.backups.Read(abs, v.VersionID)
	}
	data, err := os.ReadFile(abs)
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read artifact for %s: %w", v.VersionID, err)
	}
	return nil, &Error{
		Code:      CodeIrrecoverableVersion,
		VersionID: v.VersionID,
		Message:   fmt.Sprintf("no readable content for version %s: live artifact and snapshot both missing", v.VersionID),
	}
}

// unifiedDiff renders a unified diff with three lines of context and
// counts added and removed lines (hunk headers excluded).
func unifiedDiff(fromID, toID, a, b string) (string, int, int, error) {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(a),
		B:        splitLines(b),
		FromFile: "version " + fromID,
		ToFile:   "version " + toID,
		Context:  3,
	})
	if err != nil {
		return "", 0, 0, err
	}

	adds, dels := 0, 0
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			adds++
		case strings.HasPrefix(line, "-"):
			dels++
		}
	}
	return text, adds, dels, nil
}

// similarity is the sequence-matcher ratio over the characters of the
// full text, so an in-line edit still scores close to 1 rather than
// discarding the whole line. The ratio of two empty documents is defined
// as 1, and 0 when exactly one side is empty.
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// splitLines splits text into lines that keep their trailing newline,
// matching the shape unified diffs expect. Empty text has no lines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
