// servs/s_cas/cas_serv/store.go
package cas_serv

import (
	"context"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/nats-io/nuid"
	"github.com/rs/zerolog"
	"github.com/rskv-p/cas/config"
	"github.com/rskv-p/cas/pkg/x_cas"
	"github.com/rskv-p/cas/pkg/x_db"
	"github.com/rskv-p/cas/pkg/x_imp"
	"github.com/rskv-p/cas/pkg/x_log"
)

// Store is an index of any value type that is safe for concurrent use.
// Values cross the boundary untyped and are converted per store.
type Store interface {
	Info() Info
	Len() int
	Query(req QueryRequest) (QueryResult, error)
	Insert(r Record) (InsertResult, error)
	Delete(r Record) (DeleteResult, error)
	Import(r io.Reader, delim rune, bulk bool) (int, error)
	Export(w io.Writer, delim rune) error
	Save(ctx context.Context, dao *x_db.DAO, name string) error
	Restore(ctx context.Context, dao *x_db.DAO, name string) (int, error)
	Merge()
	Stats() x_cas.IndexStats
	// Generation changes after every mutation. Cached query results are
	// valid only for the generation they were computed at.
	Generation() uint64
}

// New builds a store for cfg.ValueType with the configured policies.
func New(cfg *config.Config) (Store, error) {
	opts, err := cfg.IndexOptions()
	if err != nil {
		return nil, err
	}
	log := x_log.New("cas")
	opts = append(opts, x_cas.WithLogger(log))

	switch cfg.ValueType {
	case "int32":
		return newStore[int32](log, opts...), nil
	case "int64":
		return newStore[int64](log, opts...), nil
	case "string":
		return newStore[string](log, opts...), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrValueType, cfg.ValueType)
}

// NewTyped builds a store with explicit options.
func NewTyped[V x_cas.Value](opts ...x_cas.Option) Store {
	return newStore[V](zerolog.Nop(), opts...)
}

type store[V x_cas.Value] struct {
	mu  sync.RWMutex
	gen atomic.Uint64
	id  string
	idx *x_cas.Index[V]
	log zerolog.Logger
}

func newStore[V x_cas.Value](log zerolog.Logger, opts ...x_cas.Option) *store[V] {
	id := nuid.Next()
	return &store[V]{
		id:  id,
		idx: x_cas.New[V](opts...),
		log: log.With().Str("store", id).Str("value_type", x_cas.TypeName[V]()).Logger(),
	}
}

func (s *store[V]) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.idx.Stats()
	return Info{
		ID:        s.id,
		ValueType: x_cas.TypeName[V](),
		Keys:      st.Keys,
		AuxKeys:   st.AuxKeys,
		Policies:  policiesOf(s.idx.Options()),
	}
}

func (s *store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.Len()
}

//---------------------
// Conversion
//---------------------

// decodeValue converts a loosely typed value (JSON number, json.Number,
// numeric string or string) to V.
func decodeValue[V x_cas.Value](in any) (V, error) {
	var v V
	switch any(v).(type) {
	case string:
		var out string
		if err := mapstructure.WeakDecode(in, &out); err != nil {
			return v, fmt.Errorf("%w: %v", ErrBadValue, err)
		}
		// 0x00 terminates encoded strings
		if strings.IndexByte(out, x_cas.NullByte) >= 0 {
			return v, fmt.Errorf("%w: %q contains a NUL byte", ErrBadValue, out)
		}
		return any(out).(V), nil
	}

	var n int64
	if s, ok := in.(string); ok {
		p, err := x_imp.ParseValue[int64](s)
		if err != nil {
			return v, fmt.Errorf("%w: %v", ErrBadValue, err)
		}
		n = p
	} else if err := mapstructure.WeakDecode(in, &n); err != nil {
		return v, fmt.Errorf("%w: %v", ErrBadValue, err)
	}
	if _, ok := any(v).(int32); ok {
		if n < math.MinInt32 || n > math.MaxInt32 {
			return v, fmt.Errorf("%w: %d overflows int32", ErrBadValue, n)
		}
		return any(int32(n)).(V), nil
	}
	return any(n).(V), nil
}

func toKey[V x_cas.Value](r Record) (x_cas.Key[V], error) {
	v, err := decodeValue[V](r.Value)
	if err != nil {
		return x_cas.Key[V]{}, err
	}
	labels := x_cas.SplitPath(r.Path)
	if err := x_cas.ValidatePath(labels); err != nil {
		return x_cas.Key[V]{}, err
	}
	return x_cas.Key[V]{Path: labels, Value: v, DID: r.DID}, nil
}

func toRecord[V x_cas.Value](k x_cas.Key[V]) Record {
	return Record{Path: x_cas.JoinPath(k.Path), Value: k.Value, DID: k.DID}
}

func (s *store[V]) searchKey(req QueryRequest) (x_cas.BinarySearchKey, error) {
	q, err := x_cas.ParseQueryPath(req.Path)
	if err != nil {
		return x_cas.BinarySearchKey{}, err
	}
	bsk := x_cas.BinarySearchKey{Path: q}
	bsk.Low, bsk.High = x_cas.Unbounded[V]()
	if req.Low != nil {
		v, err := decodeValue[V](req.Low)
		if err != nil {
			return bsk, fmt.Errorf("low: %w", err)
		}
		bsk.Low = x_cas.EncodeValue(v)
	}
	if req.High != nil {
		v, err := decodeValue[V](req.High)
		if err != nil {
			return bsk, fmt.Errorf("high: %w", err)
		}
		bsk.High = x_cas.EncodeValue(v)
	}
	return bsk, nil
}

//---------------------
// Operations
//---------------------

func (s *store[V]) Query(req QueryRequest) (QueryResult, error) {
	bsk, err := s.searchKey(req)
	if err != nil {
		return QueryResult{}, err
	}
	res := QueryResult{Matches: []Record{}}
	emit := x_cas.DecodingEmitter(func(k x_cas.Key[V]) {
		if req.Limit > 0 && len(res.Matches) >= req.Limit {
			res.Truncated = true
			return
		}
		res.Matches = append(res.Matches, toRecord(k))
	})

	s.mu.RLock()
	defer s.mu.RUnlock()
	res.Stats = s.idx.QueryBinary(bsk, emit)
	return res, nil
}

func (s *store[V]) Insert(r Record) (InsertResult, error) {
	k, err := toKey[V](r)
	if err != nil {
		return InsertResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.idx.Put(k)
	s.gen.Add(1)
	if st.Merged {
		s.log.Debug().Msg("auxiliary merged")
	}
	return InsertResult{Stats: st}, nil
}

func (s *store[V]) Delete(r Record) (DeleteResult, error) {
	k, err := toKey[V](r)
	if err != nil {
		return DeleteResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.idx.Delete(k)
	if ok {
		s.gen.Add(1)
	}
	return DeleteResult{Deleted: ok}, nil
}

// Import reads path;value;did lines. With bulk set the index is replaced,
// otherwise every line is a point insertion.
func (s *store[V]) Import(r io.Reader, delim rune, bulk bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.gen.Add(1)
	if bulk {
		n, took, err := x_imp.BulkLoad(s.idx, r, delim)
		if err != nil {
			return 0, err
		}
		s.log.Info().Int("keys", n).Dur("took", took).Msg("bulk loaded")
		return n, nil
	}
	start := time.Now()
	n, err := x_imp.Load(s.idx, r, delim)
	s.log.Info().Int("keys", n).Dur("took", time.Since(start)).Msg("inserted")
	return n, err
}

// all returns every key ordered by DID.
func (s *store[V]) all() []x_cas.Key[V] {
	low, high := x_cas.Unbounded[V]()
	bsk := x_cas.BinarySearchKey{Path: x_cas.MustParseQueryPath("//"), Low: low, High: high}
	var keys []x_cas.Key[V]
	s.mu.RLock()
	s.idx.QueryBinary(bsk, x_cas.DecodingEmitter(func(k x_cas.Key[V]) {
		keys = append(keys, k)
	}))
	s.mu.RUnlock()
	slices.SortStableFunc(keys, func(a, b x_cas.Key[V]) int {
		switch {
		case a.DID < b.DID:
			return -1
		case a.DID > b.DID:
			return 1
		}
		return 0
	})
	return keys
}

func (s *store[V]) Export(w io.Writer, delim rune) error {
	return x_imp.Write(w, s.all(), delim)
}

func (s *store[V]) Save(ctx context.Context, dao *x_db.DAO, name string) error {
	return x_db.Save(ctx, dao, name, s.all())
}

// Restore replaces the index with a stored dataset.
func (s *store[V]) Restore(ctx context.Context, dao *x_db.DAO, name string) (int, error) {
	keys, err := x_db.Load[V](ctx, dao, name)
	if err != nil {
		return 0, err
	}
	took := s.bulkLoad(keys)
	s.log.Info().Str("dataset", name).Int("keys", len(keys)).Dur("took", took).Msg("restored")
	return len(keys), nil
}

func (s *store[V]) bulkLoad(keys []x_cas.Key[V]) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.gen.Add(1)
	return s.idx.BulkLoad(keys)
}

func (s *store[V]) Merge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx.Merge()
	s.gen.Add(1)
}

func (s *store[V]) Generation() uint64 { return s.gen.Load() }

func (s *store[V]) Stats() x_cas.IndexStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.Stats()
}
