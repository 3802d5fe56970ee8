package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaius/standards-registry/pkg/semver"
)

func TestCompare_ReportsChanges(t *testing.T) {
	c, repo := newTestController(t)
	ctx := context.Background()

	mustCreate(t, c, repo, "line one\nline two\nline three\n", semver.BumpMajor)
	mustCreate(t, c, repo, "line one\nline 2\nline three\nline four\n", semver.BumpMinor)

	cmp, err := c.Compare(ctx, "1.0.0", "1.1.0")
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", cmp.From)
	assert.Equal(t, "1.1.0", cmp.To)
	assert.Equal(t, 2, cmp.Additions)
	assert.Equal(t, 1, cmp.Deletions)
	assert.Greater(t, cmp.Similarity, 0.0)
	assert.Less(t, cmp.Similarity, 1.0)
	assert.Contains(t, cmp.Diff, "version 1.0.0")
	assert.Contains(t, cmp.Diff, "version 1.1.0")
	assert.Contains(t, cmp.Diff, "+line four\n")
	assert.Contains(t, cmp.Diff, "-line two\n")
}

func TestCompare_SymmetryOnCounts(t *testing.T) {
	c, repo := newTestController(t)
	ctx := context.Background()

	mustCreate(t, c, repo, "a\nb\nc\n", semver.BumpMajor)
	mustCreate(t, c, repo, "a\nx\nc\nd\ne\n", semver.BumpMinor)

	forward, err := c.Compare(ctx, "1.0.0", "1.1.0")
	require.NoError(t, err)
	backward, err := c.Compare(ctx, "1.1.0", "1.0.0")
	require.NoError(t, err)

	assert.Equal(t, forward.Additions, backward.Deletions)
	assert.Equal(t, forward.Deletions, backward.Additions)
	assert.InDelta(t, forward.Similarity, backward.Similarity, 1e-9)
}

func TestCompare_SimilarityIsCharacterGranular(t *testing.T) {
	c, repo := newTestController(t)
	ctx := context.Background()

	mustCreate(t, c, repo, "hello world\n", semver.BumpMajor)
	mustCreate(t, c, repo, "hello worlds\n", semver.BumpMinor)

	// A one-character edit in a one-line document must score near 1; the
	// ratio runs over characters of the full text, not whole lines.
	cmp, err := c.Compare(ctx, "1.0.0", "1.1.0")
	require.NoError(t, err)
	assert.InDelta(t, 0.96, cmp.Similarity, 0.001)
}

func TestCompare_IdenticalVersions(t *testing.T) {
	c, repo := newTestController(t)
	ctx := context.Background()

	mustCreate(t, c, repo, "same\n", semver.BumpMajor)
	mustCreate(t, c, repo, "same\n", semver.BumpMinor)

	cmp, err := c.Compare(ctx, "1.0.0", "1.1.0")
	require.NoError(t, err)
	assert.Equal(t, 1.0, cmp.Similarity)
	assert.Zero(t, cmp.Additions)
	assert.Zero(t, cmp.Deletions)
}

func TestCompare_EmptyDocuments(t *testing.T) {
	c, repo := newTestController(t)
	ctx := context.Background()

	mustCreate(t, c, repo, "", semver.BumpMajor)
	mustCreate(t, c, repo, "", semver.BumpMinor)
	mustCreate(t, c, repo, "now with content\n", semver.BumpMinor)

	// Two empty documents are identical.
	cmp, err := c.Compare(ctx, "1.0.0", "1.1.0")
	require.NoError(t, err)
	assert.Equal(t, 1.0, cmp.Similarity)

	// Empty vs non-empty shares nothing.
	cmp, err = c.Compare(ctx, "1.1.0", "1.2.0")
	require.NoError(t, err)
	assert.Equal(t, 0.0, cmp.Similarity)
	assert.Equal(t, 1, cmp.Additions)
	assert.Zero(t, cmp.Deletions)
}

func TestCompare_NotFound(t *testing.T) {
	c, repo := newTestController(t)
	mustCreate(t, c, repo, "content\n", semver.BumpMajor)

	_, err := c.Compare(context.Background(), "1.0.0", "9.9.9")
	assert.Equal(t, CodeVersionNotFound, CodeOf(err))

	_, err = c.Compare(context.Background(), "9.9.9", "1.0.0")
	assert.Equal(t, CodeVersionNotFound, CodeOf(err))
}

func TestCompare_UsesSnapshotsNotLiveFile(t *testing.T) {
	c, repo := newTestController(t)
	ctx := context.Background()

	mustCreate(t, c, repo, "first\n", semver.BumpMajor)
	mustCreate(t, c, repo, "second\n", semver.BumpMinor)

	// Both versions name the same artifact path; the live file holds only
	// the newest content. The diff must still show the recorded change.
	cmp, err := c.Compare(ctx, "1.0.0", "1.1.0")
	require.NoError(t, err)
	assert.Contains(t, cmp.Diff, "-first\n")
	assert.Contains(t, cmp.Diff, "+second\n")
}

func TestChangelog_OrderingAndPairwiseSections(t *testing.T) {
	c, repo := newTestController(t)
	ctx := context.Background()

	mustCreate(t, c, repo, "v1\n", semver.BumpMajor)            // 1.0.0
	mustCreate(t, c, repo, "v1 plus\n", semver.BumpMinor)       // 1.1.0
	mustCreate(t, c, repo, "v2 rewrite\n", semver.BumpMajor)    // 2.0.0
	require.NoError(t, c.MarkStable(ctx, "1.1.0"))

	text, err := c.Changelog(ctx, "", "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "# Changelog (1.0.0 to 2.0.0)"))

	// Ascending order.
	i1 := strings.Index(text, "## 1.0.0")
	i2 := strings.Index(text, "## 1.1.0")
	i3 := strings.Index(text, "## 2.0.0")
	require.True(t, i1 >= 0 && i2 >= 0 && i3 >= 0)
	assert.True(t, i1 < i2 && i2 < i3)

	// Exactly two pairwise diff sections for three versions.
	assert.Equal(t, 2, strings.Count(text, "- similarity:"))

	assert.Contains(t, text, "## 1.1.0")
	assert.Contains(t, text, "[stable]")
}

func TestChangelog_SingleVersionRange(t *testing.T) {
	c, repo := newTestController(t)
	mustCreate(t, c, repo, "v1\n", semver.BumpMajor)

	text, err := c.Changelog(context.Background(), "1.0.0", "1.0.0")
	require.NoError(t, err)
	assert.Contains(t, text, "## 1.0.0")
	assert.NotContains(t, text, "- similarity:")
}

func TestChangelog_EmptyLedger(t *testing.T) {
	c, _ := newTestController(t)
	text, err := c.Changelog(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "No versions recorded.\n", text)
}

func TestChangelog_InvertedRange(t *testing.T) {
	c, repo := newTestController(t)
	mustCreate(t, c, repo, "v1\n", semver.BumpMajor)
	mustCreate(t, c, repo, "v2\n", semver.BumpMinor)

	_, err := c.Changelog(context.Background(), "1.1.0", "1.0.0")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidRange, CodeOf(err))
}

func TestChangelog_UnknownBound(t *testing.T) {
	c, repo := newTestController(t)
	mustCreate(t, c, repo, "v1\n", semver.BumpMajor)

	_, err := c.Changelog(context.Background(), "9.9.9", "")
	assert.Equal(t, CodeVersionNotFound, CodeOf(err))
}

func TestChangelog_GracefulOnUnrecoverablePair(t *testing.T) {
	c, repo := newTestController(t)
	ctx := context.Background()

	mustCreate(t, c, repo, "v1\n", semver.BumpMajor)
	mustCreate(t, c, repo, "v2\n", semver.BumpMinor)

	// Wipe every source of content for 1.1.0: the live file and its snapshot.
	require.NoError(t, os.Remove(filepath.Join(repo, testArtifact)))
	require.NoError(t, os.Remove(filepath.Join(repo, DefaultBackupDirName, testArtifact+".1.1.0")))

	text, err := c.Changelog(ctx, "", "")
	require.NoError(t, err, "changelog must not abort on an uncomparable pair")
	assert.Contains(t, text, "diff unavailable")
	assert.Contains(t, text, "## 1.1.0")
}
