package x_imp_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rskv-p/cas/pkg/x_cas"
	"github.com/rskv-p/cas/pkg/x_imp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataset = `/usr/lib;42;1
/usr/lib/go;7;
/usr/local/bin;-3;
/etc/hosts;100;10
/etc/passwd;5;
`

// TestImporter_ReadAll tests field parsing and DID continuation.
func TestImporter_ReadAll(t *testing.T) {
	keys, err := x_imp.New[int64](';').ReadAll(strings.NewReader(dataset))
	require.NoError(t, err)
	require.Len(t, keys, 5)

	assert.Equal(t, []string{"usr", "lib"}, keys[0].Path)
	assert.Equal(t, int64(42), keys[0].Value)
	assert.Equal(t, int64(-3), keys[2].Value)

	dids := make([]uint64, len(keys))
	for i, k := range keys {
		dids[i] = k.DID
	}
	assert.Equal(t, []uint64{1, 2, 3, 10, 11}, dids)
}

// TestImporter_Errors tests malformed lines.
func TestImporter_Errors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		err   error
	}{
		{"fields", "/a\n", x_imp.ErrFieldCount},
		{"too many", "/a;1;2;3\n", x_imp.ErrFieldCount},
		{"value", "/a;x;1\n", x_imp.ErrValue},
		{"did", "/a;1;-1\n", x_imp.ErrDID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := x_imp.New[int32](';').ReadAll(strings.NewReader(tc.input))
			assert.ErrorIs(t, err, tc.err)
			assert.Contains(t, err.Error(), "line 1")
		})
	}

	_, err := x_imp.New[int32](';').ReadAll(strings.NewReader("/a;1\n/b;99999999999\n"))
	assert.ErrorIs(t, err, x_imp.ErrValue)
	assert.Contains(t, err.Error(), "line 2")
}

// TestParseValue tests the per-type value parsing.
func TestParseValue(t *testing.T) {
	s, err := x_imp.ParseValue[string]("   spaced out ")
	require.NoError(t, err)
	assert.Equal(t, "spaced out ", s)

	i, err := x_imp.ParseValue[int32](" -12 ")
	require.NoError(t, err)
	assert.Equal(t, int32(-12), i)

	_, err = x_imp.ParseValue[int64]("1.5")
	assert.ErrorIs(t, err, x_imp.ErrValue)
}

// TestLoad tests both index loading paths.
func TestLoad(t *testing.T) {
	bulk := x_cas.New[int64]()
	n, _, err := x_imp.BulkLoad(bulk, strings.NewReader(dataset), ';')
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	point := x_cas.New[int64]()
	n, err = x_imp.Load(point, strings.NewReader(dataset), ';')
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	sk := x_cas.SearchKey[int64]{Path: "/usr//", Low: 0, High: 50}
	want := []uint64{1, 2}
	for _, idx := range []*x_cas.Index[int64]{bulk, point} {
		dids, _, err := idx.QueryDIDs(sk)
		require.NoError(t, err)
		assert.ElementsMatch(t, want, dids)
	}
}

// TestWrite tests that exported lines read back to the same keys.
func TestWrite(t *testing.T) {
	keys, err := x_imp.New[string](',').ReadAll(strings.NewReader("/a/b,hello,4\n/c,\"x,y\",5\n"))
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "x,y", keys[1].Value)

	var buf bytes.Buffer
	require.NoError(t, x_imp.Write(&buf, keys, ','))
	again, err := x_imp.New[string](',').ReadAll(&buf)
	require.NoError(t, err)
	assert.Equal(t, keys, again)
}
