// file:cas/pkg/x_seq/seq.go

// Package x_seq answers CAS queries by scanning keys kept in value order.
// It is the reference the radix index is checked against.
package x_seq

import (
	"bytes"
	"time"

	"github.com/rskv-p/cas/pkg/x_cas"
	"github.com/tidwall/btree"
)

type entry struct {
	value []byte
	path  []byte
	did   uint64
}

func less(a, b entry) bool {
	if c := bytes.Compare(a.value, b.value); c != 0 {
		return c < 0
	}
	if c := bytes.Compare(a.path, b.path); c != 0 {
		return c < 0
	}
	return a.did < b.did
}

// Seq is an ordered set of encoded keys.
type Seq[V x_cas.Value] struct {
	tree *btree.BTreeG[entry]
}

func New[V x_cas.Value]() *Seq[V] {
	return &Seq[V]{tree: btree.NewBTreeG(less)}
}

func toEntry(bk x_cas.BinaryKey) entry {
	return entry{value: bk.Value, path: bk.Path, did: bk.DID}
}

// Insert adds k; it returns false when k is already present.
func (s *Seq[V]) Insert(k x_cas.Key[V]) bool {
	_, replaced := s.tree.Set(toEntry(x_cas.EncodeKey(k)))
	return !replaced
}

// BulkLoad replaces the content with keys.
func (s *Seq[V]) BulkLoad(keys []x_cas.Key[V]) time.Duration {
	start := time.Now()
	s.tree = btree.NewBTreeG(less)
	for _, k := range keys {
		s.tree.Set(toEntry(x_cas.EncodeKey(k)))
	}
	return time.Since(start)
}

// Delete removes k.
func (s *Seq[V]) Delete(k x_cas.Key[V]) bool {
	_, ok := s.tree.Delete(toEntry(x_cas.EncodeKey(k)))
	return ok
}

func (s *Seq[V]) Len() int { return s.tree.Len() }

// Query emits the keys matching sk in (value, path, did) order.
func (s *Seq[V]) Query(sk x_cas.SearchKey[V], emit x_cas.Emitter[V]) (x_cas.QueryStats, error) {
	bsk, err := x_cas.EncodeSearchKey(sk)
	if err != nil {
		return x_cas.QueryStats{}, err
	}
	var be x_cas.BinaryEmitter
	if emit != nil {
		be = x_cas.DecodingEmitter(emit)
	}
	return s.QueryBinary(bsk, be), nil
}

// QueryBinary scans the entries from the low bound until the high bound.
func (s *Seq[V]) QueryBinary(bsk x_cas.BinarySearchKey, emit x_cas.BinaryEmitter) x_cas.QueryStats {
	var st x_cas.QueryStats
	start := time.Now()
	s.tree.Ascend(entry{value: bsk.Low}, func(e entry) bool {
		if bytes.Compare(e.value, bsk.High) > 0 {
			return false
		}
		st.ReadLeaves++
		if x_cas.MatchPath(e.path, bsk.Path) {
			st.Matches++
			if emit != nil {
				emit(e.path, e.value, e.did)
			}
		}
		return true
	})
	st.Runtime = time.Since(start)
	st.RuntimeMain = st.Runtime
	return st
}
