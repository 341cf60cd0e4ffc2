// file:cas/pkg/x_cas/match.go
package x_cas

import (
	"fmt"
	"strings"
)

//---------------------
// Query Paths
//---------------------

// ChildWildcard matches exactly one label. An empty label ("//")
// is a descendant-or-self step.
const ChildWildcard = "?"

type axis uint8

const (
	axisByte  axis = iota // literal label byte or separator
	axisChild             // one whole label
	axisDesc              // zero or more labels
)

// QueryPath is an encoded path pattern. Every byte carries its axis so
// wildcard steps never collide with label bytes.
type QueryPath struct {
	src  string
	b    []byte
	axes []axis
}

// ParseQueryPath parses patterns such as "/a/?/c", "/a//c" or "//c".
func ParseQueryPath(s string) (QueryPath, error) {
	q := QueryPath{src: s}
	rest := strings.TrimPrefix(s, "/")
	if rest == "" {
		return q, nil
	}
	rest = strings.TrimSuffix(rest, "/")

	prevDesc := false
	for _, label := range strings.Split(rest, "/") {
		switch label {
		case "":
			if !prevDesc {
				q.push(0, axisDesc)
			}
			prevDesc = true
			continue
		case ChildWildcard:
			if !prevDesc {
				q.push(PathSep, axisByte)
			}
			q.push(0, axisChild)
		default:
			if err := ValidatePath([]string{label}); err != nil {
				return QueryPath{}, fmt.Errorf("query path %q: %w", s, err)
			}
			if !prevDesc {
				q.push(PathSep, axisByte)
			}
			for i := 0; i < len(label); i++ {
				q.push(label[i], axisByte)
			}
		}
		prevDesc = false
	}
	return q, nil
}

// MustParseQueryPath is ParseQueryPath for literals.
func MustParseQueryPath(s string) QueryPath {
	q, err := ParseQueryPath(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q *QueryPath) push(b byte, a axis) {
	q.b = append(q.b, b)
	q.axes = append(q.axes, a)
}

func (q QueryPath) String() string { return q.src }

// Len is the number of encoded query steps.
func (q QueryPath) Len() int { return len(q.b) }

// wildcardAt reports whether the step at pos matches more than one byte.
func (q QueryPath) wildcardAt(pos int) bool {
	return pos < len(q.b) && q.axes[pos] != axisByte
}

//---------------------
// Search Keys
//---------------------

// SearchKey selects keys whose path matches Path and whose value lies
// in [Low, High].
type SearchKey[V Value] struct {
	Path string
	Low  V
	High V
}

// BinarySearchKey is the encoded form of a SearchKey.
type BinarySearchKey struct {
	Path QueryPath
	Low  []byte
	High []byte
}

// EncodeSearchKey parses the pattern and encodes both bounds.
func EncodeSearchKey[V Value](sk SearchKey[V]) (BinarySearchKey, error) {
	q, err := ParseQueryPath(sk.Path)
	if err != nil {
		return BinarySearchKey{}, err
	}
	return BinarySearchKey{
		Path: q,
		Low:  EncodeValue(sk.Low),
		High: EncodeValue(sk.High),
	}, nil
}

//---------------------
// Matching
//---------------------

type matchResult uint8

const (
	incomplete matchResult = iota
	match
	mismatch
)

// pathState is the resumable state of the path matcher.
type pathState struct {
	ppos     int
	qpos     int
	descPpos int
	descQpos int
}

func newPathState() pathState { return pathState{descQpos: -1} }

// matchPath advances s over path[:n]. It backtracks to the most recent
// descendant step when a literal comparison fails.
func (q QueryPath) matchPath(path []byte, n int, s *pathState) matchResult {
	for s.ppos < n && s.descPpos < n && path[s.ppos] != NullByte {
		switch {
		case s.qpos < len(q.b) && q.axes[s.qpos] == axisByte && path[s.ppos] == q.b[s.qpos]:
			s.ppos++
			s.qpos++
		case s.qpos < len(q.b) && q.axes[s.qpos] == axisChild:
			// the label ends at the next separator
			if path[s.ppos] == PathSep {
				s.qpos++
			} else {
				s.ppos++
			}
		case s.qpos < len(q.b) && q.axes[s.qpos] == axisDesc && path[s.ppos] == PathSep:
			s.descPpos = s.ppos + 1
			s.descQpos = s.qpos
			s.ppos++
			s.qpos++
		case s.descQpos != -1:
			switch path[s.descPpos] {
			case PathSep:
				s.ppos = s.descPpos + 1
				s.qpos = s.descQpos + 1
				s.descPpos++
			case NullByte:
				s.ppos = s.descPpos
				s.qpos = s.descQpos + 1
			default:
				s.descPpos++
			}
		default:
			return mismatch
		}
	}

	if s.ppos >= n || s.descPpos >= n {
		return incomplete
	}

	// end of a full path
	if s.qpos < len(q.b) && q.axes[s.qpos] == axisChild && s.ppos > 0 && path[s.ppos-1] != PathSep {
		s.qpos++
	}
	for s.qpos < len(q.b) && q.axes[s.qpos] == axisDesc {
		s.qpos++
	}
	if s.qpos == len(q.b) {
		return match
	}
	return mismatch
}

// MatchPath reports whether a complete encoded path matches q.
func MatchPath(path []byte, q QueryPath) bool {
	s := newPathState()
	return q.matchPath(path, len(path), &s) == match
}

// valueState tracks how far the value buffer follows each bound.
type valueState struct {
	vl int
	vh int
}

// matchValue compares the accumulated value buffer with [low, high].
func matchValue(buf, low, high []byte, width int, s *valueState) matchResult {
	n := len(buf)
	for s.vl < n && s.vl < len(low) && buf[s.vl] == low[s.vl] {
		s.vl++
	}
	for s.vh < n && s.vh < len(high) && buf[s.vh] == high[s.vh] {
		s.vh++
	}
	if s.vl < n && s.vl < len(low) && buf[s.vl] < low[s.vl] {
		return mismatch
	}
	if s.vh < n && s.vh < len(high) && buf[s.vh] > high[s.vh] {
		return mismatch
	}
	if valueComplete(buf, width) {
		return match
	}
	return incomplete
}

// MatchValue reports whether a complete encoded value lies in [low, high].
func MatchValue(value, low, high []byte) bool {
	var s valueState
	return matchValue(value, low, high, len(value), &s) != mismatch
}

// prefixMatch counts the leading bytes of p found in key at pos.
func prefixMatch(p, key []byte, pos int) int {
	if pos > len(key) {
		return 0
	}
	return commonPrefixLen(p, key[pos:])
}
