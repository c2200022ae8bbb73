package ccnx

// NumberToBytes encodes n big-endian in the minimum number of bytes needed:
// 1, 2, 3, 4, or 8 bytes. 5-7 byte widths are never produced, mirroring the
// source encoder's jump straight from 4 bytes to 8.
func NumberToBytes(n uint64) []byte {
	switch {
	case n < 0x100:
		return []byte{byte(n)}
	case n < 0x10000:
		return []byte{byte(n >> 8), byte(n)}
	case n < 0x1000000:
		return []byte{byte(n >> 16), byte(n >> 8), byte(n)}
	case n < 0x100000000:
		return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	default:
		return []byte{
			byte(n >> 56), byte(n >> 48), byte(n >> 40), byte(n >> 32),
			byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n),
		}
	}
}

// BytesToNumber decodes a big-endian byte slice of any width up to 8 bytes.
func BytesToNumber(b []byte) uint64 {
	var n uint64
	for _, c := range b {
		n = (n << 8) | uint64(c)
	}
	return n
}
