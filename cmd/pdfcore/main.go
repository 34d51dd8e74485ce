// Command pdfcore is a thin CLI facade over the parser/document/CCITT
// core, per spec §6: it is a collaborator surface, not part of the
// core itself, and exists only to exercise the package API end to end.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"github.com/corvidlabs/pdfcore/document"
)

// Exit codes, per spec §6.
const (
	exitOK           = 0
	exitInvalidArgs  = 1
	exitParseFailure = 2
	exitIOFailure    = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitInvalidArgs
	}

	switch args[0] {
	case "extract-text":
		return cmdExtractText(args[1:])
	case "split":
		return cmdSplit(args[1:])
	case "extract-page":
		return cmdExtractPage(args[1:])
	case "merge":
		return cmdMerge(args[1:])
	case "info":
		return cmdInfo(args[1:])
	default:
		usage()
		return exitInvalidArgs
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pdfcore <extract-text|split|extract-page|merge|info> ...")
}

func readDocument(path string) (*document.Document, []byte, int) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		return nil, nil, exitIOFailure
	}
	doc, err := document.ParseDocument(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse %s: %v\n", path, err)
		return nil, nil, exitParseFailure
	}
	return doc, data, exitOK
}

// cmdExtractText implements `extract-text <pdf>`: writes the raw,
// undecoded-to-text content stream bytes of every page to stdout. A
// real operator/content-stream tokenizer is the text-extraction
// collaborator's job (out of this core's scope, per spec §1); this
// command only proves the page/content-stream access path works.
func cmdExtractText(args []string) int {
	if len(args) != 1 {
		usage()
		return exitInvalidArgs
	}
	doc, _, code := readDocument(args[0])
	if code != exitOK {
		return code
	}
	for i := 1; i <= doc.PageCount(); i++ {
		page, ok := doc.GetPage(i)
		if !ok {
			continue
		}
		bs, err := page.ContentsStreamBytes()
		if err != nil {
			fmt.Fprintf(os.Stderr, "page %d: %v\n", i, err)
			return exitParseFailure
		}
		os.Stdout.Write(bs)
		os.Stdout.Write([]byte{'\n'})
	}
	return exitOK
}

// cmdSplit implements `split <pdf> <dir>`: writes each page's decoded
// content stream bytes to its own file in dir, named page-<n>.bin.
func cmdSplit(args []string) int {
	if len(args) != 2 {
		usage()
		return exitInvalidArgs
	}
	doc, _, code := readDocument(args[0])
	if code != exitOK {
		return code
	}
	dir := args[1]
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", dir, err)
		return exitIOFailure
	}
	for i := 1; i <= doc.PageCount(); i++ {
		page, ok := doc.GetPage(i)
		if !ok {
			continue
		}
		bs, err := page.ContentsStreamBytes()
		if err != nil {
			fmt.Fprintf(os.Stderr, "page %d: %v\n", i, err)
			return exitParseFailure
		}
		out := filepath.Join(dir, fmt.Sprintf("page-%d.bin", i))
		if err := os.WriteFile(out, bs, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", out, err)
			return exitIOFailure
		}
	}
	return exitOK
}

// cmdExtractPage implements `extract-page <pdf> <n> <out>`.
func cmdExtractPage(args []string) int {
	if len(args) != 3 {
		usage()
		return exitInvalidArgs
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		fmt.Fprintf(os.Stderr, "invalid page number %q\n", args[1])
		return exitInvalidArgs
	}
	doc, _, code := readDocument(args[0])
	if code != exitOK {
		return code
	}
	page, ok := doc.GetPage(n)
	if !ok {
		fmt.Fprintf(os.Stderr, "page %d out of range (have %d)\n", n, doc.PageCount())
		return exitParseFailure
	}
	bs, err := page.ContentsStreamBytes()
	if err != nil {
		fmt.Fprintf(os.Stderr, "page %d: %v\n", n, err)
		return exitParseFailure
	}
	if err := os.WriteFile(args[2], bs, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", args[2], err)
		return exitIOFailure
	}
	return exitOK
}

// cmdInfo implements `info <pdf> [charset]`: prints the trailer's
// /Info dictionary, decoding its string values with the named
// charset. charset defaults to the raw-bytes passthrough; "utf16be"
// selects the PDF text-string alternative encoding (spec §3's "a
// charset hint used only by callers" — the decoder never guesses one
// on its own).
func cmdInfo(args []string) int {
	if len(args) < 1 || len(args) > 2 {
		usage()
		return exitInvalidArgs
	}
	doc, _, code := readDocument(args[0])
	if code != exitOK {
		return code
	}

	var charset encoding.Encoding
	if len(args) == 2 {
		switch args[1] {
		case "utf16be":
			charset = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
		case "raw":
			charset = nil
		default:
			fmt.Fprintf(os.Stderr, "unknown charset %q\n", args[1])
			return exitInvalidArgs
		}
	}

	info, err := doc.DocumentInfo(charset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "info: %v\n", err)
		return exitParseFailure
	}

	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s: %s\n", k, info[k])
	}
	return exitOK
}

// cmdMerge implements `merge <out> <pdf>...`: concatenates every input
// document's decoded page content streams into one output file. It
// does not build a new, independently openable PDF — composing pages
// into a fresh document graph is the FPDF-compatible builder's job,
// explicitly out of this core's scope (spec §1).
func cmdMerge(args []string) int {
	if len(args) < 2 {
		usage()
		return exitInvalidArgs
	}
	out := args[0]
	f, err := os.Create(out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", out, err)
		return exitIOFailure
	}
	defer f.Close()

	for _, path := range args[1:] {
		doc, _, code := readDocument(path)
		if code != exitOK {
			return code
		}
		for i := 1; i <= doc.PageCount(); i++ {
			page, ok := doc.GetPage(i)
			if !ok {
				continue
			}
			bs, err := page.ContentsStreamBytes()
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s page %d: %v\n", path, i, err)
				return exitParseFailure
			}
			if _, err := f.Write(bs); err != nil {
				fmt.Fprintf(os.Stderr, "write %s: %v\n", out, err)
				return exitIOFailure
			}
		}
	}
	return exitOK
}
