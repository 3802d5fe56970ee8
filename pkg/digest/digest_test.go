package digest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes_Deterministic(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte(""),
		[]byte("standards document v1\n"),
		[]byte("line one\r\nline two\r\n"),
		{0x00, 0xff, 0x10, 0x80},
	}
	for _, in := range inputs {
		assert.Equal(t, Bytes(in), Bytes(in))
	}
}

func TestBytes_DistinctInputs(t *testing.T) {
	seen := map[string]bool{}
	inputs := []string{"", "a", "b", "ab", "a\n", "a\r\n", "standards"}
	for _, in := range inputs {
		fp := Bytes([]byte(in))
		assert.False(t, seen[fp], "collision for %q", in)
		seen[fp] = true
	}
}

func TestBytes_KnownValue(t *testing.T) {
	// SHA-256 of the empty string.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Bytes(nil))
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "core_standards.md")
	content := []byte("# Core Standards\n\nRule one.\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	got, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, Bytes(content), got)
}

func TestFile_Missing(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "absent.md"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
