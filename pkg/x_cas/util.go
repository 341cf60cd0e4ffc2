// file:cas/pkg/x_cas/util.go
package x_cas

//---------------------
// Utilities
//---------------------

// commonPrefixLen returns length of common prefix.
func commonPrefixLen(s1, s2 []byte) int {
	limit := min(len(s1), len(s2))
	var i int
	for ; i < limit; i++ {
		if s1[i] != s2[i] {
			break
		}
	}
	return i
}

// copyBytes returns a new copy of the byte slice.
func copyBytes(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}

// concat joins byte runs into a fresh slice.
func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

//---------------------
// Sorted Key Arrays
//---------------------

// sortedFind returns the slot of b in keys[:size] or -1.
func sortedFind(keys []byte, size int, b byte) int {
	for i := 0; i < size; i++ {
		if keys[i] == b {
			return i
		}
		if keys[i] > b {
			break
		}
	}
	return -1
}

// sortedPut shifts larger keys right and stores (b, c) in order.
func sortedPut(keys []byte, child []node, size int, b byte, c node) {
	i := 0
	for i < size && keys[i] < b {
		i++
	}
	if i < size && keys[i] == b {
		panic("put of existing byte")
	}
	copy(keys[i+1:size+1], keys[i:size])
	copy(child[i+1:size+1], child[i:size])
	keys[i] = b
	child[i] = c
}

// sortedRemove drops b and shifts the tail left.
func sortedRemove(keys []byte, child []node, size int, b byte) {
	i := sortedFind(keys, size, b)
	if i < 0 {
		panic("remove of absent byte")
	}
	copy(keys[i:size-1], keys[i+1:size])
	copy(child[i:size-1], child[i+1:size])
	keys[size-1] = 0
	child[size-1] = nil
}

// sortedEach visits children with keys in [low, high] in ascending order.
func sortedEach(keys []byte, child []node, size int, low, high byte, f func(byte, node) bool) {
	for i := 0; i < size; i++ {
		if keys[i] < low {
			continue
		}
		if keys[i] > high || !f(keys[i], child[i]) {
			return
		}
	}
}
