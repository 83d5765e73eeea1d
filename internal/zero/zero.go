// Package zero provides best-effort wiping of secret byte buffers.
// Go gives no language-level guarantee that memory is cleared, so
// callers wipe on every exit path, including error returns.
package zero

// Bytes overwrites the slice contents with zeros.
func Bytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Bytes32 overwrites a 32-byte array, the size of a private scalar or
// chain code.
func Bytes32(b *[32]byte) {
	for i := range b {
		b[i] = 0
	}
}
