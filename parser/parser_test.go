package parser

import (
	"reflect"
	"testing"

	"github.com/corvidlabs/pdfcore/model"
)

func TestParseScalars(t *testing.T) {
	tests := []struct {
		src  string
		want model.Object
	}{
		{"null", model.Null{}},
		{"true", model.Boolean(true)},
		{"false", model.Boolean(false)},
		{"123", model.Integer(123)},
		{"-45.6", model.Real(-45.6)},
		{"/Type", model.Name("Type")},
		{"(Hello)", model.StringObject{Value: []byte("Hello"), Kind: model.LiteralString}},
		{"<48656c6c6f>", model.StringObject{Value: []byte("Hello"), Kind: model.HexString}},
	}
	for _, tc := range tests {
		got, err := ParseObject([]byte(tc.src))
		if err != nil {
			t.Fatalf("%q: %v", tc.src, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%q: got %#v, want %#v", tc.src, got, tc.want)
		}
	}
}

func TestParseReferenceVsIntegers(t *testing.T) {
	got, err := ParseObject([]byte("12 0 R"))
	if err != nil {
		t.Fatal(err)
	}
	want := model.Reference{ObjectNumber: 12, GenerationNumber: 0}
	if got != want {
		t.Errorf("got %#v, want %#v", got, want)
	}

	got, err = ParseObject([]byte("12 0"))
	if err != nil {
		t.Fatal(err)
	}
	if got != model.Integer(12) {
		t.Errorf("bare integer pair misparsed as reference: %#v", got)
	}
}

func TestParseArray(t *testing.T) {
	got, err := ParseObject([]byte("[1 2 /Foo (bar) [3 4]]"))
	if err != nil {
		t.Fatal(err)
	}
	want := model.Array{
		model.Integer(1), model.Integer(2), model.Name("Foo"),
		model.StringObject{Value: []byte("bar"), Kind: model.LiteralString},
		model.Array{model.Integer(3), model.Integer(4)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestParseDict(t *testing.T) {
	got, err := ParseObject([]byte("<< /Type /Catalog /Pages 2 0 R /Count 3 >>"))
	if err != nil {
		t.Fatal(err)
	}
	want := model.Dict{
		"Type":  model.Name("Catalog"),
		"Pages": model.Reference{ObjectNumber: 2, GenerationNumber: 0},
		"Count": model.Integer(3),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestParseDictDuplicateKeyFails(t *testing.T) {
	_, err := ParseObject([]byte("<< /A 1 /A 2 >>"))
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestParseDictNullEntryOmitted(t *testing.T) {
	got, err := ParseObject([]byte("<< /A 1 /B null >>"))
	if err != nil {
		t.Fatal(err)
	}
	d := got.(model.Dict)
	if _, has := d["B"]; has {
		t.Errorf("null-valued entry should be omitted, got %#v", d)
	}
}

func TestParseDictRelaxedMissingValue(t *testing.T) {
	// a key terminated by EOL instead of a value: strict parsing
	// fails, relaxed parsing treats it as an empty string
	got, err := ParseObject([]byte("<< /A\n/B 1 >>"))
	if err != nil {
		t.Fatal(err)
	}
	d := got.(model.Dict)
	a, ok := d["A"].(model.StringObject)
	if !ok || len(a.Value) != 0 {
		t.Errorf("expected /A to recover as empty string, got %#v", d["A"])
	}
}

func TestParseStreamWithDirectLength(t *testing.T) {
	src := "<< /Length 11 >>\nstream\nhello world\nendstream"
	got, err := ParseObject([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	s, ok := got.(model.Stream)
	if !ok {
		t.Fatalf("expected Stream, got %#v", got)
	}
	if string(s.Content) != "hello world" {
		t.Errorf("got content %q", s.Content)
	}
	if s.LengthRecovered {
		t.Error("should not need recovery when /Length is a direct integer")
	}
}

func TestParseStreamRecoversMissingLength(t *testing.T) {
	src := "<< /Foo 1 >>\nstream\nsome raw bytes\nendstream"
	got, err := ParseObject([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	s := got.(model.Stream)
	if string(s.Content) != "some raw bytes" {
		t.Errorf("got content %q", s.Content)
	}
	if !s.LengthRecovered {
		t.Error("expected LengthRecovered to be set")
	}
}

func TestParseStreamResolvesIndirectLength(t *testing.T) {
	src := "<< /Length 5 0 R >>\nstream\nhello\nendstream"
	p := NewParser([]byte(src))
	p.SetLengthResolver(func(ref model.Reference) (int, bool) {
		if ref == (model.Reference{ObjectNumber: 5, GenerationNumber: 0}) {
			return 5, true
		}
		return 0, false
	})
	got, err := p.ParseObject()
	if err != nil {
		t.Fatal(err)
	}
	s := got.(model.Stream)
	if string(s.Content) != "hello" || s.LengthRecovered {
		t.Errorf("got %#v", s)
	}
}

func TestParseObjectDefinition(t *testing.T) {
	n, g, obj, err := ParseObjectDefinition([]byte("7 0 obj (payload) endobj"), false)
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 || g != 0 {
		t.Errorf("got object id (%d,%d)", n, g)
	}
	want := model.StringObject{Value: []byte("payload"), Kind: model.LiteralString}
	if !reflect.DeepEqual(obj, want) {
		t.Errorf("got %#v, want %#v", obj, want)
	}
}

func TestParseObjectDefinitionHeaderOnly(t *testing.T) {
	n, g, obj, err := ParseObjectDefinition([]byte("7 0 obj <</A 1>> endobj"), true)
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 || g != 0 || obj != nil {
		t.Errorf("headerOnly should return no object, got (%d,%d,%#v)", n, g, obj)
	}
}
