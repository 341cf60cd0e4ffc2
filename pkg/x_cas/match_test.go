package x_cas_test

import (
	"testing"

	"github.com/rskv-p/cas/pkg/x_cas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMatchPath tests wildcard and descendant patterns against full paths.
func TestMatchPath(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/usr/lib", "/usr/lib", true},
		{"/usr/lib", "/usr/lib64", false},
		{"/usr/lib", "/usr", false},
		{"/a//c", "/a/b/c", true},
		{"/a//c", "/a/c", true},
		{"/a//c", "/x/c", false},
		{"/a//c", "/a/b/c/d", false},
		{"//c", "/c", true},
		{"//c", "/x/y/c", true},
		{"//c", "/x/cc", false},
		{"/a/?", "/a/b", true},
		{"/a/?", "/a", false},
		{"/a/?", "/a/b/c", false},
		{"/a/?/c", "/a/bbb/c", true},
		{"/a//", "/a", true},
		{"/a//", "/a/b/c", true},
		{"//", "/", true},
		{"//", "/x/y", true},
		{"/", "/", true},
		{"/", "/a", false},
	}
	for _, tc := range cases {
		t.Run(tc.pattern+" "+tc.path, func(t *testing.T) {
			q, err := x_cas.ParseQueryPath(tc.pattern)
			require.NoError(t, err)
			path := x_cas.EncodePath(x_cas.SplitPath(tc.path))
			assert.Equal(t, tc.want, x_cas.MatchPath(path, q))
		})
	}
}

// TestParseQueryPath tests pattern parsing.
func TestParseQueryPath(t *testing.T) {
	q, err := x_cas.ParseQueryPath("/a////c")
	require.NoError(t, err)
	assert.Equal(t, x_cas.MustParseQueryPath("/a//c").Len(), q.Len())
	assert.Equal(t, "/a////c", q.String())

	_, err = x_cas.ParseQueryPath("/a/b\x00c")
	assert.ErrorIs(t, err, x_cas.ErrReservedByte)

	assert.Panics(t, func() { x_cas.MustParseQueryPath("/\xff") })
}

// TestMatchValue tests inclusive range bounds.
func TestMatchValue(t *testing.T) {
	lo, hi := x_cas.EncodeValue(int64(-5)), x_cas.EncodeValue(int64(10))
	for v, want := range map[int64]bool{-6: false, -5: true, 0: true, 10: true, 11: false} {
		assert.Equal(t, want, x_cas.MatchValue(x_cas.EncodeValue(v), lo, hi), "value %d", v)
	}

	slo, shi := x_cas.EncodeValue("b"), x_cas.EncodeValue("d")
	assert.True(t, x_cas.MatchValue(x_cas.EncodeValue("b"), slo, shi))
	assert.True(t, x_cas.MatchValue(x_cas.EncodeValue("cat"), slo, shi))
	assert.True(t, x_cas.MatchValue(x_cas.EncodeValue("d"), slo, shi))
	assert.False(t, x_cas.MatchValue(x_cas.EncodeValue("a"), slo, shi))
	assert.False(t, x_cas.MatchValue(x_cas.EncodeValue("da"), slo, shi))
}
