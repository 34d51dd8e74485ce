package filters

import "fmt"

// decodeRunLength reverses RunLengthDecode: for each control byte n,
// 0..127 copies the next n+1 bytes literally, 129..255 repeats the
// next byte 257-n times, and 128 ends the stream immediately
// regardless of remaining input, per spec §4.5 and §8.
func decodeRunLength(encoded []byte) ([]byte, error) {
	var out []byte
	i := 0
	for i < len(encoded) {
		n := encoded[i]
		i++
		switch {
		case n == 128:
			return out, nil
		case n < 128:
			count := int(n) + 1
			if i+count > len(encoded) {
				return nil, fmt.Errorf("%w: RunLengthDecode literal run truncated", errFilterFailed)
			}
			out = append(out, encoded[i:i+count]...)
			i += count
		default:
			if i >= len(encoded) {
				return nil, fmt.Errorf("%w: RunLengthDecode repeat run truncated", errFilterFailed)
			}
			count := 257 - int(n)
			b := encoded[i]
			i++
			for j := 0; j < count; j++ {
				out = append(out, b)
			}
		}
	}
	return nil, fmt.Errorf("%w: RunLengthDecode missing EOD marker", errFilterFailed)
}
