package lstf

import "fmt"

// Variable-length integer codec shared by every event stream. 7 value bits
// per byte, MSB set means another byte follows, least-significant group
// first. Bounded to 5 bytes (enough for the full 32-bit range).

const maxVarintShift = 28

// readUvarint decodes one varint from the front of data.
// Returns the value and the number of bytes consumed.
func readUvarint(data []byte) (uint32, int, error) {
	var value uint32
	var shift uint
	for i := 0; i < len(data); i++ {
		b := data[i]
		value |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
		shift += 7
		if shift > maxVarintShift {
			return 0, 0, fmt.Errorf("%w: continuation chain exceeds 5 bytes", ErrMalformedVarint)
		}
	}
	return 0, 0, fmt.Errorf("%w: payload ends mid-varint", ErrMalformedVarint)
}

// appendUvarint appends the varint encoding of v to dst.
func appendUvarint(dst []byte, v uint32) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}
