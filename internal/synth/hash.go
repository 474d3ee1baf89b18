package synth

// Hash32 is a djb2-variant string hash: h = h*33 ^ c over the raw bytes,
// with wrapping uint32 arithmetic.
//
// The 32-bit width is a contract, not an implementation detail. Every
// derived stream (transaction counts, template picks, date offsets, amounts,
// external ids) is a pure function of these values, so a reimplementation
// using 64-bit arithmetic would silently produce different synthetic data
// everywhere. Collision resistance is not required; stability is.
func Hash32(s string) uint32 {
	var h uint32 = 5381
	for i := 0; i < len(s); i++ {
		h = h*33 ^ uint32(s[i])
	}
	return h
}

// hashMod maps Hash32(s) into [0, max). max must be > 0.
func hashMod(s string, max int) int {
	return int(Hash32(s) % uint32(max))
}
