package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/solaius/standards-registry/pkg/ledger"
	"github.com/solaius/standards-registry/pkg/semver"
)

// Changelog renders a markdown changelog over the requested id range,
// ascending by semantic version. Empty fromID and toID default to the
// earliest and latest recorded versions. Each consecutive pair in the
// range gets a diff-stats section; a pair whose content cannot be
// resolved is noted inline without aborting the changelog.
func (c *Controller) Changelog(ctx context.Context, fromID, toID string) (string, error) {
	var out string
	err := c.locker.WithLock(ctx, func() error {
		text, err := c.doChangelog(fromID, toID)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	return out, err
}

func (c *Controller) doChangelog(fromID, toID string) (string, error) {
	versions := c.ledger.Versions()
	if len(versions) == 0 {
		return "No versions recorded.\n", nil
	}

	sortVersionsAscending(versions)

	start, end := 0, len(versions)-1
	if fromID != "" {
		idx, ok := indexOf(versions, fromID)
		if !ok {
			return "", notFound(fromID)
		}
		start = idx
	}
	if toID != "" {
		idx, ok := indexOf(versions, toID)
		if !ok {
			return "", notFound(toID)
		}
		end = idx
	}
	if start > end {
		return "", &Error{
			Code:    CodeInvalidRange,
			Message: fmt.Sprintf("changelog range inverted: %s orders after %s", versions[start].VersionID, versions[end].VersionID),
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Changelog (%s to %s)\n\n", versions[start].VersionID, versions[end].VersionID)

	for i := start; i <= end; i++ {
		v := versions[i]
		stability := "development"
		if v.Stable {
			stability = "stable"
		}
		fmt.Fprintf(&b, "## %s (%s) [%s]", v.VersionID, v.Timestamp.UTC().Format("2006-01-02 15:04:05"), stability)
		if v.Active {
			b.WriteString(" [active]")
		}
		b.WriteString("\n\n")
		if v.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", v.Description)
		}

		if i > start {
			prev := versions[i-1]
			cmp, err := c.doCompare(prev.VersionID, v.VersionID)
			if err != nil {
				fmt.Fprintf(&b, "- diff unavailable: %v\n\n", err)
				continue
			}
			fmt.Fprintf(&b, "- similarity: %.2f%%\n", cmp.Similarity*100)
			fmt.Fprintf(&b, "- added: %d lines\n", cmp.Additions)
			fmt.Fprintf(&b, "- removed: %d lines\n\n", cmp.Deletions)
		}
	}

	return b.String(), nil
}

func sortVersionsAscending(versions []ledger.Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		vi, erri := semver.Parse(versions[i].VersionID)
		vj, errj := semver.Parse(versions[j].VersionID)
		if erri != nil || errj != nil {
			return erri != nil && errj == nil
		}
		return vi.Less(vj)
	})
}

func indexOf(versions []ledger.Version, versionID string) (int, bool) {
	for i, v := range versions {
		if v.VersionID == versionID {
			return i, true
		}
	}
	return 0, false
}
