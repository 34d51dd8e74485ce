package filters

import "fmt"

func hexDigit(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func isHexWhitespace(c byte) bool {
	switch c {
	case 0, 9, 10, 12, 13, 32:
		return true
	}
	return false
}

// decodeASCIIHex reverses ASCIIHexDecode: whitespace-tolerant pairs
// of hex digits terminated by '>', with an odd trailing digit padded
// with a zero nibble per spec §4.5.
func decodeASCIIHex(encoded []byte) ([]byte, error) {
	var out []byte
	var nibble byte
	haveNibble := false

	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if c == '>' {
			if haveNibble {
				out = append(out, nibble<<4)
			}
			return out, nil
		}
		if isHexWhitespace(c) {
			continue
		}
		v, ok := hexDigit(c)
		if !ok {
			return nil, fmt.Errorf("%w: invalid hex digit %q", errFilterFailed, c)
		}
		if !haveNibble {
			nibble = v
			haveNibble = true
		} else {
			out = append(out, nibble<<4|v)
			haveNibble = false
		}
	}
	return nil, fmt.Errorf("%w: ASCIIHexDecode missing '>' terminator", errFilterFailed)
}
