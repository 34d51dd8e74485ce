package filters

import (
	"bytes"
	"compress/zlib"
	"testing"
)

func TestRunLengthDecode(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"literal run", []byte{0x00, 'a', 0x80}, []byte("a")},
		{"repeat run", []byte{0xFE, 'a', 0x80}, []byte("aaa")},
		{"eod terminates immediately", []byte{0x80, 'j', 'u', 'n', 'k'}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeRunLength(tc.in)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRunLengthMissingEOD(t *testing.T) {
	if _, err := decodeRunLength([]byte{0x00, 'a'}); err == nil {
		t.Fatal("expected error for missing EOD marker")
	}
}

func TestASCIIHexDecode(t *testing.T) {
	got, err := decodeASCIIHex([]byte("48656C6C6F>"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Hello" {
		t.Errorf("got %q", got)
	}
}

func TestASCIIHexOddLength(t *testing.T) {
	got, err := decodeASCIIHex([]byte("48656C6C6>"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Hell\x60" {
		t.Errorf("got %q, trailing nibble should be padded with 0", got)
	}
}

func TestASCIIHexWhitespaceTolerant(t *testing.T) {
	got, err := decodeASCIIHex([]byte("48 65\n6C 6C\t6F>"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Hello" {
		t.Errorf("got %q", got)
	}
}

func TestASCII85Decode(t *testing.T) {
	encoded := append(encodeASCII85ForTest([]byte("Hello, world")), []byte("~>")...)
	got, err := decodeASCII85(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Hello, world" {
		t.Errorf("got %q", got)
	}
}

func TestASCII85ZExpansion(t *testing.T) {
	got, err := decodeASCII85([]byte("z~>"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{0, 0, 0, 0}) {
		t.Errorf("got %v, want four zero bytes", got)
	}
}

func TestASCII85PartialTrailingGroup(t *testing.T) {
	// encode 1 byte then 4 bytes through the standard algorithm and
	// check the trailing partial-group output length matches n-1
	oneByte := encodeASCII85ForTest([]byte{0x41})
	got, err := decodeASCII85(append(oneByte, []byte("~>")...))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("1-byte trailing group should decode to 1 byte, got %d", len(got))
	}

	fourBytes := encodeASCII85ForTest([]byte{0x41, 0x42, 0x43, 0x44})
	got, err = decodeASCII85(append(fourBytes, []byte("~>")...))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Errorf("4-byte trailing group should decode to 4 bytes, got %d", len(got))
	}
}

// encodeASCII85ForTest is a minimal reference encoder, used only to
// build fixtures for the decoder tests above.
func encodeASCII85ForTest(data []byte) []byte {
	var out []byte
	for len(data) > 0 {
		n := len(data)
		if n > 4 {
			n = 4
		}
		var buf [4]byte
		copy(buf[:], data[:n])
		acc := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
		var group [5]byte
		for i := 4; i >= 0; i-- {
			group[i] = byte(acc%85) + '!'
			acc /= 85
		}
		out = append(out, group[:n+1]...)
		data = data[n:]
	}
	return out
}

func TestFlateDecodeNoPredictor(t *testing.T) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write([]byte("hello, flate"))
	w.Close()

	got, err := decodeFlate(nil, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello, flate" {
		t.Errorf("got %q", got)
	}
}

func TestFlateDecodeWithPNGUpPredictor(t *testing.T) {
	// 2 rows of 4 one-byte samples; row 0 raw, row 1 up-filtered
	// (type 2) against row 0
	row0 := []byte{0, 10, 20, 30, 40}  // filter byte + 4 samples
	row1 := []byte{2, 1, 1, 1, 1}      // up filter, delta +1 per sample
	plain := append(append([]byte{}, row0...), row1...)

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(plain)
	w.Close()

	params := Params{"Predictor": 12, "Columns": 4, "Colors": 1, "BitsPerComponent": 8}
	got, err := decodeFlate(params, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{10, 20, 30, 40, 11, 21, 31, 41}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDecodeChainAppliesLeftToRight(t *testing.T) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write([]byte{0x00, 'x', 0x80}) // RunLength-encoded "x"
	w.Close()

	out, err := DecodeChain([]Step{{Name: Flate}, {Name: RunLength}}, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "x" {
		t.Errorf("got %q", out)
	}
}

func TestLZWUnsupported(t *testing.T) {
	_, err := Decode(Step{Name: LZW}, []byte{1, 2, 3})
	if err == nil {
		t.Fatal("expected LZWDecode to be unsupported")
	}
}
