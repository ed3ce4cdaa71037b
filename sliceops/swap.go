package sliceops

// SwapBuf returns a copy of in with the byte order reversed, for fields HCI
// carries little endian.
func SwapBuf(in []byte) []byte {
	out := make([]byte, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
