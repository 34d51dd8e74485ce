package tokenizer

import (
	"bytes"
	"testing"
)

func TestReals(t *testing.T) {
	want := []float64{12e1, -124e7, 12e-7, 98.78, -45.4, 45}
	for i, src := range []string{
		"+12e1", "-124e7", "12e-7", "98.78", "-45.4", "45.",
	} {
		tk, err := Tokenize([]byte(src))
		if err != nil {
			t.Fatal(err)
		}
		if len(tk) != 1 {
			t.Fatalf("%q: expected 1 token, got %v", src, tk)
		}
		if tk[0].Kind != Real {
			t.Errorf("%q: expected Real, got %s", src, tk[0].Kind)
		}
		if f, err := tk[0].Float(); err != nil || f != want[i] {
			t.Errorf("%q: expected %v got %v", src, want[i], f)
		}
	}
}

func TestKindStrings(t *testing.T) {
	for k := EOF; k <= Other; k++ {
		if k.String() == "<invalid token>" {
			t.Errorf("kind %d has no name", k)
		}
	}
	if Kind(Other + 1).String() != "<invalid token>" {
		t.Error("expected unknown kind to stringify as invalid")
	}
}

func TestSkipBinary(t *testing.T) {
	out, err := Tokenize([]byte("7 8 stream dmslsudm"))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Errorf("expected 3 tokens (7, 8, stream), got %v", out)
	}
}

func TestResume(t *testing.T) {
	input := []byte("7 8 9 4 5 6 4")
	tk := NewTokenizer(input)

	nplus2, err := tk.PeekPeekToken()
	if err != nil {
		t.Fatal(err)
	}
	if exp := (Token{Kind: Integer, Value: "8"}); nplus2 != exp {
		t.Errorf("expected %v got %v", exp, nplus2)
	}

	if _, err = tk.NextToken(); err != nil {
		t.Fatal(err)
	}
	chunk := tk.SkipBytes(2)
	if !bytes.Equal(chunk, []byte(" 8")) {
		t.Errorf("expected %q got %q", " 8", chunk)
	}

	next, err := tk.NextToken()
	if err != nil {
		t.Fatal(err)
	}
	if next != (Token{Kind: Integer, Value: "9"}) {
		t.Errorf("expected 9, got %v", next)
	}
	if p := tk.CurrentPosition(); p != 5 {
		t.Errorf("expected position 5, got %d", p)
	}
}

func TestBytes(t *testing.T) {
	input := []byte("7 8 9")
	tk := NewTokenizer(input)
	if len(tk.Bytes()) != len(input) {
		t.Error("expected full input before consuming anything")
	}
	tk.NextToken()
	if len(tk.Bytes()) != len(input)-1 {
		t.Error("expected input minus '7' after one token")
	}
	tk.NextToken()
	tk.NextToken()
	if tk.Bytes() != nil {
		t.Error("expected nil at EOF")
	}
}

func TestEOLBeforeToken(t *testing.T) {
	input := []byte("a /Key \n 5 \r6 4")
	tk := NewTokenizer(input)
	if _, err := tk.NextToken(); err != nil {
		t.Fatal(err)
	}
	if tk.HasEOLBeforeToken() {
		t.Error("first token should not report a preceding EOL")
	}
	if _, err := tk.NextToken(); err != nil {
		t.Fatal(err)
	}
	if !tk.HasEOLBeforeToken() {
		t.Error("second token should report the preceding EOL")
	}
}

func TestNameEscape(t *testing.T) {
	tk := NewTokenizer([]byte("/A#20B#2F"))
	tok, err := tk.NextToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != Name || tok.Value != "A B/" {
		t.Errorf("expected name %q, got %v", "A B/", tok)
	}
}

func TestHexStringOddLength(t *testing.T) {
	tk := NewTokenizer([]byte("<48656C6C6>"))
	tok, err := tk.NextToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != StringHex {
		t.Fatalf("expected hex string, got %v", tok)
	}
	if tok.Value != "Hell\x60" {
		t.Errorf("expected trailing nibble padded with 0, got %q", tok.Value)
	}
}

func TestLiteralStringOctalEscape(t *testing.T) {
	tk := NewTokenizer([]byte(`(A\101\nB)`))
	tok, err := tk.NextToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != String || tok.Value != "AA\nB" {
		t.Errorf("expected %q, got %q", "AA\nB", tok.Value)
	}
}

func TestReferenceLookahead(t *testing.T) {
	tk := NewTokenizer([]byte("12 0 R"))
	first, _ := tk.PeekToken()
	second, _ := tk.PeekPeekToken()
	if first.Value != "12" || second.Value != "0" {
		t.Fatalf("unexpected lookahead: %v %v", first, second)
	}
}
