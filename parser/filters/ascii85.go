package filters

import "fmt"

// decodeASCII85 reverses ASCII85Decode: whitespace-tolerant groups of
// 5 characters decoding to 4 bytes each, 'z' standing alone for a
// whole zero group, terminated by "~>". A trailing partial group of
// n (2..=4) characters is padded with 'u' (value 84) to a full group
// and truncated to n-1 output bytes, per spec §4.5 and testable
// property "ASCII85 with partial trailing group".
func decodeASCII85(encoded []byte) ([]byte, error) {
	var out []byte
	var group [5]byte
	n := 0

	flush := func(count int) error {
		// count is how many of the 5 group slots are "real"
		// characters; the rest were padded with 'u' for a trailing
		// partial group.
		var acc uint32
		for _, c := range group {
			acc = acc*85 + uint32(c)
		}
		var buf [4]byte
		buf[0] = byte(acc >> 24)
		buf[1] = byte(acc >> 16)
		buf[2] = byte(acc >> 8)
		buf[3] = byte(acc)
		out = append(out, buf[:count-1]...)
		return nil
	}

	i := 0
	for i < len(encoded) {
		c := encoded[i]
		if c == '~' {
			if i+1 < len(encoded) && encoded[i+1] == '>' {
				if n > 0 {
					if n == 1 {
						return nil, fmt.Errorf("%w: ASCII85Decode trailing group of 1", errFilterFailed)
					}
					for j := n; j < 5; j++ {
						group[j] = 84 // 'u'
					}
					if err := flush(n); err != nil {
						return nil, err
					}
				}
				return out, nil
			}
			return nil, fmt.Errorf("%w: malformed ASCII85 terminator", errFilterFailed)
		}
		if isHexWhitespace(c) {
			i++
			continue
		}
		if c == 'z' {
			if n != 0 {
				return nil, fmt.Errorf("%w: 'z' inside an ASCII85 group", errFilterFailed)
			}
			out = append(out, 0, 0, 0, 0)
			i++
			continue
		}
		if c < '!' || c > 'u' {
			return nil, fmt.Errorf("%w: invalid ASCII85 character %q", errFilterFailed, c)
		}
		group[n] = c - '!'
		n++
		if n == 5 {
			if err := flush(5); err != nil {
				return nil, err
			}
			n = 0
		}
		i++
	}
	return nil, fmt.Errorf("%w: ASCII85Decode missing \"~>\" terminator", errFilterFailed)
}
