// file:cas/pkg/x_imp/importer.go

// Package x_imp reads and writes datasets of path;value;did lines.
package x_imp

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rskv-p/cas/pkg/x_cas"
)

var (
	ErrFieldCount = errors.New("expected path, value and an optional did")
	ErrValue      = errors.New("malformed value")
	ErrDID        = errors.New("malformed did")
)

// DefaultDelimiter separates the fields of a line.
const DefaultDelimiter = ';'

//---------------------
// Importer
//---------------------

// Importer turns lines into keys. An empty DID field continues from the
// previous line's DID.
type Importer[V x_cas.Value] struct {
	delim   rune
	highest uint64
}

func New[V x_cas.Value](delim rune) *Importer[V] {
	if delim == 0 {
		delim = DefaultDelimiter
	}
	return &Importer[V]{delim: delim}
}

// ParseRecord converts the fields of one line.
func (im *Importer[V]) ParseRecord(fields []string) (x_cas.Key[V], error) {
	var key x_cas.Key[V]
	if len(fields) < 2 || len(fields) > 3 {
		return key, ErrFieldCount
	}

	key.Path = x_cas.SplitPath(fields[0])
	if err := x_cas.ValidatePath(key.Path); err != nil {
		return key, err
	}
	v, err := ParseValue[V](fields[1])
	if err != nil {
		return key, err
	}
	key.Value = v

	if len(fields) == 3 && strings.TrimSpace(fields[2]) != "" {
		did, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 64)
		if err != nil {
			return key, fmt.Errorf("%w: %q", ErrDID, fields[2])
		}
		key.DID = did
	} else {
		key.DID = im.highest + 1
	}
	im.highest = key.DID
	return key, nil
}

// Read calls fn for every line of r.
func (im *Importer[V]) Read(r io.Reader, fn func(x_cas.Key[V]) error) error {
	im.highest = 0
	cr := csv.NewReader(r)
	cr.Comma = im.delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read dataset: %w", err)
		}
		line, _ := cr.FieldPos(0)
		key, err := im.ParseRecord(fields)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(key); err != nil {
			return err
		}
	}
}

// ReadAll collects every key of r.
func (im *Importer[V]) ReadAll(r io.Reader) ([]x_cas.Key[V], error) {
	var keys []x_cas.Key[V]
	err := im.Read(r, func(k x_cas.Key[V]) error {
		keys = append(keys, k)
		return nil
	})
	return keys, err
}

//---------------------
// Index Loading
//---------------------

// Load inserts every key of r with the index's configured policies.
func Load[V x_cas.Value](idx *x_cas.Index[V], r io.Reader, delim rune) (int, error) {
	n := 0
	err := New[V](delim).Read(r, func(k x_cas.Key[V]) error {
		idx.Put(k)
		n++
		return nil
	})
	return n, err
}

// BulkLoad replaces the index content with the keys of r.
func BulkLoad[V x_cas.Value](idx *x_cas.Index[V], r io.Reader, delim rune) (int, time.Duration, error) {
	keys, err := New[V](delim).ReadAll(r)
	if err != nil {
		return 0, 0, err
	}
	return len(keys), idx.BulkLoad(keys), nil
}

//---------------------
// Values
//---------------------

// ParseValue parses s as V. Strings lose their leading blanks.
func ParseValue[V x_cas.Value](s string) (V, error) {
	var v V
	switch any(v).(type) {
	case int32:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return v, fmt.Errorf("%w: %q", ErrValue, s)
		}
		return any(int32(n)).(V), nil
	case int64:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return v, fmt.Errorf("%w: %q", ErrValue, s)
		}
		return any(n).(V), nil
	}
	s = strings.TrimLeft(s, " ")
	if strings.IndexByte(s, x_cas.NullByte) >= 0 {
		return v, fmt.Errorf("%w: %q", ErrValue, s)
	}
	return any(s).(V), nil
}

// FormatValue is the inverse of ParseValue.
func FormatValue[V x_cas.Value](v V) string {
	return fmt.Sprint(v)
}

//---------------------
// Export
//---------------------

// Write writes keys as path;value;did lines.
func Write[V x_cas.Value](w io.Writer, keys []x_cas.Key[V], delim rune) error {
	if delim == 0 {
		delim = DefaultDelimiter
	}
	cw := csv.NewWriter(w)
	cw.Comma = delim
	for _, k := range keys {
		rec := []string{
			x_cas.JoinPath(k.Path),
			FormatValue(k.Value),
			strconv.FormatUint(k.DID, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
