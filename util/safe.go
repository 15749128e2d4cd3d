package util

import (
	"runtime"
)

// -----------------------------------------------------------------------------

// SafeZeroMem zeroes the given buffer. The runtime.KeepAlive call keeps the compiler from treating
// the writes as dead stores when the buffer is about to become unreachable.
func SafeZeroMem(v []byte) {
	vLen := len(v)
	if vLen > 0 {
		v[0] = 0
		for ofs := 1; ofs < vLen; ofs *= 2 {
			copy(v[ofs:], v[:ofs])
		}
		runtime.KeepAlive(v)
	}
}

// SafeZeroMemArray zeroes every buffer in the given list.
func SafeZeroMemArray(v [][]byte) {
	for idx := range v {
		SafeZeroMem(v[idx])
	}
}

// CloneBytes returns a copy of v that the caller owns. A nil input yields a nil output.
func CloneBytes(v []byte) []byte {
	if v == nil {
		return nil
	}
	c := make([]byte, len(v))
	copy(c, v)
	return c
}
