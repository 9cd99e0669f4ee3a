package domain

// Zero overwrites a byte slice with zeros. Callers use it to scrub key
// material as soon as it is no longer needed.
func Zero(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
