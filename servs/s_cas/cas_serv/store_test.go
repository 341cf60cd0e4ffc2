package cas_serv_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rskv-p/cas/config"
	"github.com/rskv-p/cas/pkg/x_cas"
	"github.com/rskv-p/cas/pkg/x_db"
	"github.com/rskv-p/cas/servs/s_cas/cas_serv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `/usr/lib;42;1
/usr/bin;7;2
/home/ann/notes;42;3
/home/bob;-3;4
`

func loaded(t *testing.T) cas_serv.Store {
	t.Helper()
	s := cas_serv.NewTyped[int64]()
	n, err := s.Import(strings.NewReader(sample), ';', true)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	return s
}

func dids(res cas_serv.QueryResult) []uint64 {
	out := make([]uint64, 0, len(res.Matches))
	for _, m := range res.Matches {
		out = append(out, m.DID)
	}
	return out
}

// TestNew tests store construction from config.
func TestNew(t *testing.T) {
	for _, vt := range []string{"int32", "int64", "string"} {
		cfg := config.Default()
		cfg.ValueType = vt
		s, err := cas_serv.New(cfg)
		require.NoError(t, err, vt)
		info := s.Info()
		assert.Equal(t, vt, info.ValueType)
		assert.NotEmpty(t, info.ID)
		assert.Equal(t, "lazy", info.Policies.InsertMain)
	}

	cfg := config.Default()
	cfg.ValueType = "float"
	_, err := cas_serv.New(cfg)
	assert.ErrorIs(t, err, cas_serv.ErrValueType)
}

// TestStore_Query tests open and closed bounds and loose value types.
func TestStore_Query(t *testing.T) {
	s := loaded(t)

	t.Run("open", func(t *testing.T) {
		res, err := s.Query(cas_serv.QueryRequest{Path: "//"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint64{1, 2, 3, 4}, dids(res))
		assert.Equal(t, 4, res.Stats.Matches)
	})

	t.Run("closed", func(t *testing.T) {
		res, err := s.Query(cas_serv.QueryRequest{Path: "/usr/?", Low: 40.0, High: "42"})
		require.NoError(t, err)
		assert.Equal(t, []uint64{1}, dids(res))
		assert.Equal(t, "/usr/lib", res.Matches[0].Path)
		assert.Equal(t, int64(42), res.Matches[0].Value)
	})

	t.Run("json number", func(t *testing.T) {
		res, err := s.Query(cas_serv.QueryRequest{Path: "/home//", High: json.Number("0")})
		require.NoError(t, err)
		assert.Equal(t, []uint64{4}, dids(res))
	})

	t.Run("limit", func(t *testing.T) {
		res, err := s.Query(cas_serv.QueryRequest{Path: "//", Limit: 2})
		require.NoError(t, err)
		assert.Len(t, res.Matches, 2)
		assert.True(t, res.Truncated)
		assert.Equal(t, 4, res.Stats.Matches)
	})

	t.Run("bad bound", func(t *testing.T) {
		_, err := s.Query(cas_serv.QueryRequest{Path: "/", Low: "x"})
		assert.ErrorIs(t, err, cas_serv.ErrBadValue)
	})
}

// TestStore_Update tests insertion and deletion through records.
func TestStore_Update(t *testing.T) {
	s := loaded(t)

	_, err := s.Insert(cas_serv.Record{Path: "/usr/share", Value: 42, DID: 9})
	require.NoError(t, err)
	res, err := s.Query(cas_serv.QueryRequest{Path: "/usr/?", Low: 42, High: 42})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 9}, dids(res))

	del, err := s.Delete(cas_serv.Record{Path: "/usr/lib", Value: 42, DID: 1})
	require.NoError(t, err)
	assert.True(t, del.Deleted)
	del, err = s.Delete(cas_serv.Record{Path: "/usr/lib", Value: 42, DID: 1})
	require.NoError(t, err)
	assert.False(t, del.Deleted)
	assert.Equal(t, 4, s.Len())

	t.Run("int32 overflow", func(t *testing.T) {
		s32 := cas_serv.NewTyped[int32]()
		_, err := s32.Insert(cas_serv.Record{Path: "/a", Value: int64(1) << 40, DID: 1})
		assert.ErrorIs(t, err, cas_serv.ErrBadValue)
	})

	t.Run("reserved byte", func(t *testing.T) {
		_, err := s.Insert(cas_serv.Record{Path: "/a\x00b", Value: 1, DID: 1})
		assert.ErrorIs(t, err, x_cas.ErrReservedByte)
	})
}

// TestStore_Auxiliary tests that the auxiliary tree is merged on demand.
func TestStore_Auxiliary(t *testing.T) {
	s := cas_serv.NewTyped[string](x_cas.WithTarget(x_cas.AuxiliaryOnly))
	for i, p := range []string{"/a", "/b", "/c"} {
		_, err := s.Insert(cas_serv.Record{Path: p, Value: "v", DID: uint64(i + 1)})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, s.Info().AuxKeys)
	s.Merge()
	assert.Equal(t, 0, s.Info().AuxKeys)
	assert.Equal(t, 3, s.Len())
}

// TestStore_Export tests that exported lines import into an equal store.
func TestStore_Export(t *testing.T) {
	s := loaded(t)
	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf, ';'))
	assert.Equal(t, sample, buf.String())

	t.Run("db", func(t *testing.T) {
		cfg := x_db.DefaultConfig()
		cfg.DSN = filepath.Join(t.TempDir(), "cas.db")
		dao, err := x_db.Open(cfg, zerolog.Nop())
		require.NoError(t, err)
		defer dao.Close()

		ctx := context.Background()
		require.NoError(t, s.Save(ctx, dao, "sample"))
		other := cas_serv.NewTyped[int64]()
		n, err := other.Restore(ctx, dao, "sample")
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		var out bytes.Buffer
		require.NoError(t, other.Export(&out, ';'))
		assert.Equal(t, sample, out.String())
	})
}

// TestStore_Concurrent tests readers and writers sharing a store.
func TestStore_Concurrent(t *testing.T) {
	s := cas_serv.NewTyped[int64]()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				did := uint64(w*100 + i + 1)
				_, _ = s.Insert(cas_serv.Record{Path: "/w/x", Value: int64(i), DID: did})
				_, _ = s.Query(cas_serv.QueryRequest{Path: "/w//", Low: 0, High: 10})
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 200, s.Len())
}

// TestStore_NulValue tests that string values with a NUL byte are rejected
// and leave the store usable.
func TestStore_NulValue(t *testing.T) {
	s := cas_serv.NewTyped[string]()
	_, err := s.Insert(cas_serv.Record{Path: "/a", Value: "x", DID: 1})
	require.NoError(t, err)

	_, err = s.Insert(cas_serv.Record{Path: "/a", Value: "x\u0000y", DID: 2})
	assert.ErrorIs(t, err, cas_serv.ErrBadValue)
	_, err = s.Delete(cas_serv.Record{Path: "/a", Value: "x\u0000", DID: 1})
	assert.ErrorIs(t, err, cas_serv.ErrBadValue)
	_, err = s.Query(cas_serv.QueryRequest{Path: "//", Low: "\u0000"})
	assert.ErrorIs(t, err, cas_serv.ErrBadValue)

	done := make(chan int, 1)
	go func() { done <- s.Len() }()
	select {
	case n := <-done:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("store blocked after a rejected insert")
	}
	res, err := s.Query(cas_serv.QueryRequest{Path: "/a"})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, dids(res))
}

// TestStore_Generation tests that every mutation moves the generation and
// reads do not.
func TestStore_Generation(t *testing.T) {
	s := loaded(t)
	g := s.Generation()

	_, err := s.Query(cas_serv.QueryRequest{Path: "//"})
	require.NoError(t, err)
	s.Stats()
	assert.Equal(t, g, s.Generation())

	_, err = s.Insert(cas_serv.Record{Path: "/tmp", Value: 1, DID: 5})
	require.NoError(t, err)
	assert.Greater(t, s.Generation(), g)

	g = s.Generation()
	res, err := s.Delete(cas_serv.Record{Path: "/nope", Value: 1, DID: 9})
	require.NoError(t, err)
	assert.False(t, res.Deleted)
	assert.Equal(t, g, s.Generation())

	_, err = s.Delete(cas_serv.Record{Path: "/tmp", Value: 1, DID: 5})
	require.NoError(t, err)
	assert.Greater(t, s.Generation(), g)

	g = s.Generation()
	s.Merge()
	assert.Greater(t, s.Generation(), g)

	g = s.Generation()
	_, err = s.Import(strings.NewReader("/z;1;1\n"), ';', true)
	require.NoError(t, err)
	assert.Greater(t, s.Generation(), g)
}
