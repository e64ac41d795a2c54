package pool

import (
	"sync"
)

const SIZE_SMALL = 256   // headers and small responses
const SIZE_MEDIUM = 4096 // typical frames
const SIZE_LARGE = 65536

var classes = [...]int{SIZE_SMALL, SIZE_MEDIUM, SIZE_LARGE}

var pools = [len(classes)]*sync.Pool{
	{New: func() any { b := make([]byte, 0, SIZE_SMALL); return &b }},
	{New: func() any { b := make([]byte, 0, SIZE_MEDIUM); return &b }},
	{New: func() any { b := make([]byte, 0, SIZE_LARGE); return &b }},
}

// Get returns an empty buffer able to hold at least sz bytes without growing.
// Requests above SIZE_LARGE are allocated directly and never pooled.
func Get(sz int) []byte {
	for i, c := range classes {
		if sz <= c {
			return (*pools[i].Get().(*[]byte))[:0]
		}
	}
	return make([]byte, 0, sz)
}

// Put returns b to its pool. Buffers whose capacity is not a pool class are dropped.
func Put(b []byte) {
	for i, c := range classes {
		if cap(b) == c {
			b = b[:0]
			pools[i].Put(&b)
			return
		}
	}
}
