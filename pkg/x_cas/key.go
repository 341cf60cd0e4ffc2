// file:cas/pkg/x_cas/key.go
package x_cas

import "fmt"

//---------------------
// Keys
//---------------------

// Key is a typed (path, value, did) triple.
type Key[V Value] struct {
	Path  []string
	Value V
	DID   uint64
}

// BinaryKey is the encoded form of a Key.
type BinaryKey struct {
	Path  []byte
	Value []byte
	DID   uint64
}

// EncodeKey encodes both dimensions of k.
func EncodeKey[V Value](k Key[V]) BinaryKey {
	return BinaryKey{
		Path:  EncodePath(k.Path),
		Value: EncodeValue(k.Value),
		DID:   k.DID,
	}
}

// DecodeKey rebuilds a typed key from its encoded dimensions.
func DecodeKey[V Value](path, value []byte, did uint64) Key[V] {
	return Key[V]{
		Path:  DecodePath(path),
		Value: DecodeValue[V](value),
		DID:   did,
	}
}

// String renders the key as path=value#did.
func (k Key[V]) String() string {
	return fmt.Sprintf("%s=%v#%d", JoinPath(k.Path), k.Value, k.DID)
}

// dim returns the bytes of the given dimension.
func (k *BinaryKey) dim(t NodeType) []byte {
	if t == NodePath {
		return k.Path
	}
	return k.Value
}

//---------------------
// Emitters
//---------------------

// BinaryEmitter receives raw matches. path and value are only valid
// during the call.
type BinaryEmitter func(path, value []byte, did uint64)

// Emitter receives decoded matches.
type Emitter[V Value] func(Key[V])

// DecodingEmitter adapts a typed emitter to the binary interface.
func DecodingEmitter[V Value](emit Emitter[V]) BinaryEmitter {
	return func(path, value []byte, did uint64) {
		emit(DecodeKey[V](path, value, did))
	}
}

// CollectDIDs returns an emitter appending every DID to dst.
func CollectDIDs(dst *[]uint64) BinaryEmitter {
	return func(_, _ []byte, did uint64) {
		*dst = append(*dst, did)
	}
}
