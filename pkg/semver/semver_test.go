package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.2.3", "1.2.3"},
		{"v1.2.3", "1.2.3"},
		{"1.2", "1.2.0"},
		{"2", "2.0.0"},
		{"v10.0.1", "10.0.1"},
	}
	for _, tt := range tests {
		v, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, v.String(), tt.in)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3.4", "1.x.0", "1.2.3-beta", "1.2.3+build.7"} {
		_, err := Parse(in)
		require.Error(t, err, in)
		assert.ErrorIs(t, err, ErrMalformed, in)
	}
}

func TestIncrement(t *testing.T) {
	tests := []struct {
		in   string
		kind Bump
		want string
	}{
		{"1.2.3", BumpMajor, "2.0.0"},
		{"1.2.3", BumpMinor, "1.3.0"},
		{"2.0.0", BumpPatch, "2.0.1"},
		{"0.9.9", BumpMinor, "0.10.0"},
	}
	for _, tt := range tests {
		got := MustParse(tt.in).Increment(tt.kind)
		assert.Equal(t, tt.want, got.String())
	}
}

func TestCompare(t *testing.T) {
	assert.Equal(t, 0, MustParse("1.2.3").Compare(MustParse("v1.2.3")))
	assert.Equal(t, -1, MustParse("1.9.0").Compare(MustParse("1.10.0")))
	assert.Equal(t, 1, MustParse("2.0.0").Compare(MustParse("1.99.99")))
	assert.True(t, MustParse("1.0.0").Less(MustParse("1.0.1")))
}

func TestParseBump(t *testing.T) {
	b, err := ParseBump("")
	require.NoError(t, err)
	assert.Equal(t, BumpMinor, b)

	b, err = ParseBump("patch")
	require.NoError(t, err)
	assert.Equal(t, BumpPatch, b)

	_, err = ParseBump("huge")
	require.Error(t, err)
}

func TestSortIDs(t *testing.T) {
	ids := []string{"2.0.0", "1.10.0", "1.2.0", "1.9.1"}
	SortIDs(ids)
	assert.Equal(t, []string{"1.2.0", "1.9.1", "1.10.0", "2.0.0"}, ids)
}
