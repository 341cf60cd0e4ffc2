// file:cas/pkg/x_cas/cas.go

// Package x_cas implements a content-and-structure index: an adaptive
// radix tree over (path, value, did) keys whose nodes branch alternately
// on the path and on the value dimension.
package x_cas

import (
	"time"

	"github.com/rs/zerolog"
)

//---------------------
// Index
//---------------------

// Index is a CAS index over values of type V. It keeps a main tree and an
// auxiliary tree that collects insertions the main tree refused.
// An Index is not safe for concurrent use.
type Index[V Value] struct {
	main  node
	aux   node
	opts  Options
	width int
	log   zerolog.Logger
}

// UpdateStats reports where an insertion went and how long it took.
type UpdateStats struct {
	Runtime     time.Duration `json:"runtime"`
	RuntimeMain time.Duration `json:"runtime_main"`
	RuntimeAux  time.Duration `json:"runtime_aux"`
	Auxiliary   bool          `json:"auxiliary"`
	Merged      bool          `json:"merged"`
}

// New creates an empty index.
func New[V Value](opts ...Option) *Index[V] {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Index[V]{
		opts:  o,
		width: valueWidth[V](),
		log:   o.Logger,
	}
}

// Options returns the options the index was created with.
func (x *Index[V]) Options() Options { return x.opts }

// Len returns the number of stored DIDs in both trees.
func (x *Index[V]) Len() int {
	n := 0
	if x.main != nil {
		n += x.main.base().keys
	}
	if x.aux != nil {
		n += x.aux.base().keys
	}
	return n
}

//---------------------
// Loading
//---------------------

// BulkLoad replaces the index content with keys.
func (x *Index[V]) BulkLoad(keys []Key[V]) time.Duration {
	bkeys := make([]BinaryKey, len(keys))
	for i, k := range keys {
		bkeys[i] = EncodeKey(k)
	}
	return x.BulkLoadBinary(bkeys)
}

// BulkLoadBinary replaces the index content with already encoded keys.
func (x *Index[V]) BulkLoadBinary(keys []BinaryKey) time.Duration {
	start := time.Now()
	x.main = bulkLoad(keys, NodeValue)
	x.aux = nil
	elapsed := time.Since(start)
	x.log.Debug().Int("keys", len(keys)).Dur("elapsed", elapsed).Msg("bulk load")
	return elapsed
}

//---------------------
// Insertion
//---------------------

// Put inserts key with the configured policies.
func (x *Index[V]) Put(key Key[V]) UpdateStats {
	return x.Insert(key, x.opts.InsertMain, x.opts.InsertAux, x.opts.Target)
}

// Insert adds key using mainType on the main tree and auxType on the
// auxiliary tree.
func (x *Index[V]) Insert(key Key[V], mainType, auxType UpdateType, target InsertTarget) UpdateStats {
	bk := EncodeKey(key)
	return x.InsertBinary(bk, mainType, auxType, target)
}

// InsertBinary is Insert for an encoded key.
func (x *Index[V]) InsertBinary(bk BinaryKey, mainType, auxType UpdateType, target InsertTarget) UpdateStats {
	var st UpdateStats
	start := time.Now()

	switch target {
	case MainOnly:
		insert(&x.main, &bk, mainType, false)
		st.RuntimeMain = time.Since(start)
	case AuxiliaryOnly:
		insert(&x.aux, &bk, auxType, false)
		st.RuntimeAux = time.Since(start)
		st.Auxiliary = true
	case MainAuxiliary:
		if insert(&x.main, &bk, mainType, true) {
			st.RuntimeMain = time.Since(start)
			break
		}
		mid := time.Now()
		st.RuntimeMain = mid.Sub(start)
		insert(&x.aux, &bk, auxType, false)
		st.RuntimeAux = time.Since(mid)
		st.Auxiliary = true
	}

	if st.Auxiliary {
		st.Merged = x.mergeIfFull()
	}
	st.Runtime = time.Since(start)
	return st
}

// mergeIfFull merges once the auxiliary tree reaches the threshold.
func (x *Index[V]) mergeIfFull() bool {
	if x.opts.MergeThreshold <= 0 || x.aux == nil || x.aux.base().keys < x.opts.MergeThreshold {
		return false
	}
	x.Merge()
	return true
}

// Merge folds the auxiliary tree into the main tree.
func (x *Index[V]) Merge() {
	if x.aux == nil {
		return
	}
	start := time.Now()
	auxKeys := x.aux.base().keys
	x.main = mergeTrees(x.main, x.aux, x.opts.Merge)
	x.aux = nil
	x.log.Debug().
		Int("aux_keys", auxKeys).
		Str("method", x.opts.Merge.String()).
		Dur("elapsed", time.Since(start)).
		Msg("merged auxiliary index")
}

//---------------------
// Deletion
//---------------------

// Delete removes key.DID from the entry of key.
func (x *Index[V]) Delete(key Key[V]) bool {
	return x.DeleteBinary(EncodeKey(key))
}

// DeleteBinary removes bk from the main tree, or else from the auxiliary tree.
func (x *Index[V]) DeleteBinary(bk BinaryKey) bool {
	if remove(&x.main, &bk, x.opts.Delete) {
		return true
	}
	return remove(&x.aux, &bk, x.opts.Delete)
}

//---------------------
// Queries
//---------------------

// Query emits every key matching sk as a typed key.
func (x *Index[V]) Query(sk SearchKey[V], emit Emitter[V]) (QueryStats, error) {
	bsk, err := EncodeSearchKey(sk)
	if err != nil {
		return QueryStats{}, err
	}
	var be BinaryEmitter
	if emit != nil {
		be = DecodingEmitter(emit)
	}
	return x.QueryBinary(bsk, be), nil
}

// QueryDIDs returns the DIDs of every key matching sk.
func (x *Index[V]) QueryDIDs(sk SearchKey[V]) ([]uint64, QueryStats, error) {
	bsk, err := EncodeSearchKey(sk)
	if err != nil {
		return nil, QueryStats{}, err
	}
	var dids []uint64
	st := x.QueryBinary(bsk, CollectDIDs(&dids))
	return dids, st, nil
}

// QueryBinary runs an encoded search key against the main tree and then
// against the auxiliary tree.
func (x *Index[V]) QueryBinary(bsk BinarySearchKey, emit BinaryEmitter) QueryStats {
	var st QueryStats
	q := newQuery(&bsk, x.width, emit, &st)

	start := time.Now()
	q.run(x.main)
	mid := time.Now()
	st.RuntimeMain = mid.Sub(start)
	if x.aux != nil {
		q.run(x.aux)
		st.RuntimeAux = time.Since(mid)
	}
	st.Runtime = time.Since(start)
	return st
}

//---------------------
// Introspection
//---------------------

// Stats walks both trees.
func (x *Index[V]) Stats() IndexStats {
	s := IndexStats{Depths: map[int]int{}}
	collectStats(x.main, &s)
	collectStats(x.aux, &s)
	s.Keys = x.Len()
	if x.aux != nil {
		s.AuxKeys = x.aux.base().keys
	}
	return s
}

// Describe logs the index statistics.
func (x *Index[V]) Describe(log zerolog.Logger) {
	s := x.Stats()
	log.Info().
		Int("keys", s.Keys).
		Int("aux_keys", s.AuxKeys).
		Int("size_bytes", s.SizeBytes).
		Int("nodes", s.Nodes).
		Int("path_nodes", s.PathNodes).
		Int("value_nodes", s.ValueNodes).
		Int("leaves", s.Leaves).
		Int("max_depth", s.MaxDepth).
		Float64("alternation", s.AlternationRatio()).
		Msg("index stats")
}
