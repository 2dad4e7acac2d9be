package stripedmap

import (
	"fmt"
	"hash"
)

// writeAny feeds a byte representation of k into h. Common key kinds used
// by the loading dictionary (strings, integers) are handled without
// allocating an intermediate string; anything else falls back to its
// default formatting, which is correct for any comparable type but costs
// an allocation per hash.
func writeAny(h hash.Hash64, k any) {
	switch v := k.(type) {
	case string:
		_, _ = h.Write([]byte(v))
	case int:
		writeInt64(h, int64(v))
	case int32:
		writeInt64(h, int64(v))
	case int64:
		writeInt64(h, v)
	case uint:
		writeInt64(h, int64(v))
	case uint32:
		writeInt64(h, int64(v))
	case uint64:
		writeInt64(h, int64(v))
	default:
		_, _ = h.Write([]byte(fmt.Sprint(v)))
	}
}

func writeInt64(h hash.Hash64, v int64) {
	var buf [8]byte
	u := uint64(v)
	for i := 0; i < 8; i++ {
		buf[i] = byte(u)
		u >>= 8
	}
	_, _ = h.Write(buf[:])
}
