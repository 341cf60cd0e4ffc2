// file:cas/pkg/x_cas/encoding.go
package x_cas

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
)

//---------------------
// Reserved Bytes
//---------------------

const (
	PathSep  = byte(0xFF) // precedes every path label
	NullByte = byte(0x00) // terminates paths and string values

	msb32 = uint32(1) << 31
	msb64 = uint64(1) << 63
)

// ErrReservedByte is returned for labels that contain PathSep or NullByte.
var ErrReservedByte = errors.New("label contains a reserved byte")

// Value is the set of typed values an index can hold.
type Value interface {
	int32 | int64 | string
}

//---------------------
// Values
//---------------------

// EncodeValue returns the order-preserving encoding of v.
// Integers are big-endian with the sign bit flipped; strings are
// raw bytes followed by NullByte.
func EncodeValue[V Value](v V) []byte {
	switch x := any(v).(type) {
	case int32:
		out := make([]byte, 4)
		binary.BigEndian.PutUint32(out, uint32(x)^msb32)
		return out
	case int64:
		out := make([]byte, 8)
		binary.BigEndian.PutUint64(out, uint64(x)^msb64)
		return out
	case string:
		out := make([]byte, 0, len(x)+1)
		out = append(out, x...)
		return append(out, NullByte)
	}
	panic("unsupported value type")
}

// DecodeValue is the inverse of EncodeValue.
func DecodeValue[V Value](b []byte) V {
	var v V
	switch any(v).(type) {
	case int32:
		return any(int32(binary.BigEndian.Uint32(b) ^ msb32)).(V)
	case int64:
		return any(int64(binary.BigEndian.Uint64(b) ^ msb64)).(V)
	case string:
		if n := len(b); n > 0 && b[n-1] == NullByte {
			b = b[:n-1]
		}
		return any(string(b)).(V)
	}
	panic("unsupported value type")
}

// valueWidth returns the fixed encoded width of V, or 0 for strings.
func valueWidth[V Value]() int {
	var v V
	switch any(v).(type) {
	case int32:
		return 4
	case int64:
		return 8
	}
	return 0
}

// Unbounded returns encoded bounds covering every value of V.
func Unbounded[V Value]() (low, high []byte) {
	w := valueWidth[V]()
	if w == 0 {
		return []byte{NullByte}, []byte{PathSep}
	}
	low = make([]byte, w)
	return low, bytes.Repeat([]byte{0xFF}, w)
}

// TypeName returns "int32", "int64" or "string".
func TypeName[V Value]() string {
	var v V
	switch any(v).(type) {
	case int32:
		return "int32"
	case int64:
		return "int64"
	}
	return "string"
}

// valueComplete reports whether buf holds a whole encoded value.
func valueComplete(buf []byte, width int) bool {
	if width > 0 {
		return len(buf) == width
	}
	return len(buf) > 0 && buf[len(buf)-1] == NullByte
}

//---------------------
// Paths
//---------------------

// EncodePath writes every label behind a PathSep and terminates with NullByte.
func EncodePath(labels []string) []byte {
	n := 1
	for _, l := range labels {
		n += len(l) + 1
	}
	out := make([]byte, 0, n)
	for _, l := range labels {
		out = append(out, PathSep)
		out = append(out, l...)
	}
	return append(out, NullByte)
}

// DecodePath is the inverse of EncodePath.
func DecodePath(b []byte) []string {
	if n := len(b); n > 0 && b[n-1] == NullByte {
		b = b[:n-1]
	}
	if len(b) == 0 {
		return []string{}
	}
	parts := bytes.Split(b[1:], []byte{PathSep})
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out
}

// SplitPath turns "/a/b/c" into its labels, skipping empty ones.
func SplitPath(s string) []string {
	labels := []string{}
	for _, l := range strings.Split(s, "/") {
		if l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

// JoinPath is the inverse of SplitPath.
func JoinPath(labels []string) string {
	return "/" + strings.Join(labels, "/")
}

// ValidatePath rejects labels that would break the path encoding.
func ValidatePath(labels []string) error {
	for _, l := range labels {
		if strings.IndexByte(l, PathSep) >= 0 || strings.IndexByte(l, NullByte) >= 0 {
			return ErrReservedByte
		}
	}
	return nil
}
