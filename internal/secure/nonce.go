package secure

// nonceSize is the AES-256-GCM nonce length used by the record layer.
const nonceSize = 12

// nonceCounter is a 12-byte little-endian counter, incremented once per
// record sent or received in a given direction. Grounded on the teacher's
// internal/crypto nonce bookkeeping, generalized to the 96-bit GCM nonce.
type nonceCounter struct {
	buf [nonceSize]byte
}

func newNonceCounter(seed []byte) *nonceCounter {
	n := &nonceCounter{}
	copy(n.buf[:], seed)
	return n
}

// bytes returns the current nonce value. The returned slice aliases internal
// state and must be used before the next increment.
func (n *nonceCounter) bytes() []byte { return n.buf[:] }

// increment advances the counter by one, carrying through a full 0xFF...FF
// wraparound exactly like a little-endian unsigned integer increment.
func (n *nonceCounter) increment() {
	for i := range n.buf {
		n.buf[i]++
		if n.buf[i] != 0 {
			return
		}
	}
}
