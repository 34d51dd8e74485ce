package model

import (
	"testing"

	"golang.org/x/text/encoding/unicode"
)

func TestStringObjectTextWithNoCharsetReturnsRawBytes(t *testing.T) {
	s := StringObject{Value: []byte("hello"), Kind: LiteralString}
	text, err := s.Text()
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello" {
		t.Fatalf("got %q, want %q", text, "hello")
	}
}

func TestStringObjectTextDecodesUTF16BE(t *testing.T) {
	// "Hi" encoded as big-endian UTF-16, the PDF text-string
	// alternative to PDFDocEncoding.
	utf16be := []byte{0x00, 'H', 0x00, 'i'}
	s := StringObject{Value: utf16be, Kind: HexString}
	s = s.WithCharset(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM))

	text, err := s.Text()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Hi" {
		t.Fatalf("got %q, want %q", text, "Hi")
	}
}

func TestWithCharsetDoesNotMutateOriginal(t *testing.T) {
	orig := StringObject{Value: []byte("x"), Kind: LiteralString}
	_ = orig.WithCharset(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM))
	if orig.Charset != nil {
		t.Fatal("WithCharset must not mutate the receiver")
	}
}
