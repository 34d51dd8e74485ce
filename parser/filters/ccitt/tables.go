package ccitt

import "sort"

// Color is the run color a HorizontalCode belongs to. Makeup codes of
// 1792 pixels and above (ITU T.4 §2.2.4) are defined once and shared
// by both colors; which color context they apply in is decided by
// the decoder's current run color, not by the table, resolving the
// ambiguity of the source's COLOR_BOTH constant the way the standard
// describes it rather than guessing at undocumented source behavior.
type Color uint8

const (
	White Color = iota
	Black
)

// HorizontalCode is one entry of a run-length code table, pre-shifted
// to align into a 16-bit MSB-first window, per spec §4.7.
type HorizontalCode struct {
	BitsUsed      int32
	Mask          uint32
	Value         uint32
	Color         Color
	Pixels        int32
	IsTerminating bool
}

func newHorizontalCode(bits int32, pattern uint32, color Color, pixels int32, terminating bool) HorizontalCode {
	const window = 16
	shift := uint(window - bits)
	return HorizontalCode{
		BitsUsed:      bits,
		Mask:          ((uint32(1) << uint(bits)) - 1) << shift,
		Value:         pattern << shift,
		Color:         color,
		Pixels:        pixels,
		IsTerminating: terminating,
	}
}

// whiteTerminating and blackTerminating are the ITU-T T.4 Table 2 / 3
// terminating codes (run lengths 0-63 pixels), as (bits, pattern,
// pixels) triples.
var whiteTerminating = []struct {
	bits, pattern, pixels int32
}{
	{8, 0x35, 0}, {6, 0x07, 1}, {4, 0x07, 2}, {4, 0x08, 3},
	{4, 0x0B, 4}, {4, 0x0C, 5}, {4, 0x0E, 6}, {4, 0x0F, 7},
	{5, 0x13, 8}, {5, 0x14, 9}, {5, 0x07, 10}, {5, 0x08, 11},
	{6, 0x08, 12}, {6, 0x03, 13}, {6, 0x34, 14}, {6, 0x35, 15},
	{6, 0x2A, 16}, {6, 0x2B, 17}, {7, 0x27, 18}, {7, 0x0C, 19},
	{7, 0x08, 20}, {7, 0x17, 21}, {7, 0x03, 22}, {7, 0x04, 23},
	{7, 0x28, 24}, {7, 0x2B, 25}, {7, 0x13, 26}, {7, 0x24, 27},
	{7, 0x18, 28}, {8, 0x02, 29}, {8, 0x03, 30}, {8, 0x1A, 31},
	{8, 0x1B, 32}, {8, 0x12, 33}, {8, 0x13, 34}, {8, 0x14, 35},
	{8, 0x15, 36}, {8, 0x16, 37}, {8, 0x17, 38}, {8, 0x28, 39},
	{8, 0x29, 40}, {8, 0x2A, 41}, {8, 0x2B, 42}, {8, 0x2C, 43},
	{8, 0x2D, 44}, {8, 0x04, 45}, {8, 0x05, 46}, {8, 0x0A, 47},
	{8, 0x0B, 48}, {8, 0x52, 49}, {8, 0x53, 50}, {8, 0x54, 51},
	{8, 0x55, 52}, {8, 0x24, 53}, {8, 0x25, 54}, {8, 0x58, 55},
	{8, 0x59, 56}, {8, 0x5A, 57}, {8, 0x5B, 58}, {8, 0x4A, 59},
	{8, 0x4B, 60}, {8, 0x32, 61}, {8, 0x33, 62}, {8, 0x34, 63},
}

var whiteMakeup = []struct {
	bits, pattern, pixels int32
}{
	{5, 0x1B, 64}, {5, 0x12, 128}, {6, 0x17, 192}, {7, 0x37, 256},
	{8, 0x36, 320}, {8, 0x37, 384}, {8, 0x64, 448}, {8, 0x65, 512},
	{8, 0x68, 576}, {8, 0x67, 640}, {9, 0xCC, 704}, {9, 0xCD, 768},
	{9, 0xD2, 832}, {9, 0xD3, 896}, {9, 0xD4, 960}, {9, 0xD5, 1024},
	{9, 0xD6, 1088}, {9, 0xD7, 1152}, {9, 0xD8, 1216}, {9, 0xD9, 1280},
	{9, 0xDA, 1344}, {9, 0xDB, 1408}, {9, 0x98, 1472}, {9, 0x99, 1536},
	{9, 0x9A, 1600}, {6, 0x18, 1664}, {9, 0x9B, 1728},
}

var blackTerminating = []struct {
	bits, pattern, pixels int32
}{
	{10, 0x37, 0}, {3, 0x02, 1}, {2, 0x03, 2}, {2, 0x02, 3},
	{3, 0x03, 4}, {4, 0x03, 5}, {4, 0x02, 6}, {5, 0x03, 7},
	{6, 0x05, 8}, {6, 0x04, 9}, {7, 0x04, 10}, {7, 0x05, 11},
	{7, 0x07, 12}, {8, 0x04, 13}, {8, 0x07, 14}, {9, 0x18, 15},
	{10, 0x17, 16}, {10, 0x18, 17}, {10, 0x08, 18}, {11, 0x67, 19},
	{11, 0x68, 20}, {11, 0x6C, 21}, {11, 0x37, 22}, {11, 0x28, 23},
	{11, 0x17, 24}, {11, 0x18, 25}, {12, 0xCA, 26}, {12, 0xCB, 27},
	{12, 0xCC, 28}, {12, 0xCD, 29}, {12, 0x68, 30}, {12, 0x69, 31},
	{12, 0x6A, 32}, {12, 0x6B, 33}, {12, 0xD2, 34}, {12, 0xD3, 35},
	{12, 0xD4, 36}, {12, 0xD5, 37}, {12, 0xD6, 38}, {12, 0xD7, 39},
	{12, 0x6C, 40}, {12, 0x6D, 41}, {12, 0xDA, 42}, {12, 0xDB, 43},
	{12, 0x54, 44}, {12, 0x55, 45}, {12, 0x56, 46}, {12, 0x57, 47},
	{12, 0x64, 48}, {12, 0x65, 49}, {12, 0x52, 50}, {12, 0x53, 51},
	{12, 0x24, 52}, {12, 0x37, 53}, {12, 0x38, 54}, {12, 0x27, 55},
	{12, 0x28, 56}, {12, 0x58, 57}, {12, 0x59, 58}, {12, 0x2B, 59},
	{12, 0x2C, 60}, {12, 0x5A, 61}, {12, 0x66, 62}, {12, 0x67, 63},
}

var blackMakeup = []struct {
	bits, pattern, pixels int32
}{
	{10, 0x0F, 64}, {12, 0xC8, 128}, {12, 0xC9, 192}, {12, 0x5B, 256},
	{12, 0x33, 320}, {12, 0x34, 384}, {12, 0x35, 448}, {13, 0x6C, 512},
	{13, 0x6D, 576}, {13, 0x4A, 640}, {13, 0x4B, 704}, {13, 0x4C, 768},
	{13, 0x4D, 832}, {13, 0x72, 896}, {13, 0x73, 960}, {13, 0x74, 1024},
	{13, 0x75, 1088}, {13, 0x76, 1152}, {13, 0x77, 1216}, {13, 0x52, 1280},
	{13, 0x53, 1344}, {13, 0x54, 1408}, {13, 0x55, 1472}, {13, 0x5A, 1536},
	{13, 0x5B, 1600}, {13, 0x64, 1664}, {13, 0x65, 1728},
}

// extendedMakeup (ITU-T T.4 Table 4) is shared by both colors: codes
// for runs of 1792 pixels and above.
var extendedMakeup = []struct {
	bits, pattern, pixels int32
}{
	{11, 0x08, 1792}, {11, 0x0C, 1856}, {11, 0x0D, 1920},
	{12, 0x12, 1984}, {12, 0x13, 2048}, {12, 0x14, 2112},
	{12, 0x15, 2176}, {12, 0x16, 2240}, {12, 0x17, 2304},
	{12, 0x1C, 2368}, {12, 0x1D, 2432}, {12, 0x1E, 2496}, {12, 0x1F, 2560},
}

func buildTable(color Color) []HorizontalCode {
	var terminating, makeup []struct{ bits, pattern, pixels int32 }
	if color == White {
		terminating, makeup = whiteTerminating, whiteMakeup
	} else {
		terminating, makeup = blackTerminating, blackMakeup
	}

	table := make([]HorizontalCode, 0, len(terminating)+len(makeup)+len(extendedMakeup))
	for _, e := range terminating {
		table = append(table, newHorizontalCode(e.bits, uint32(e.pattern), color, e.pixels, true))
	}
	for _, e := range makeup {
		table = append(table, newHorizontalCode(e.bits, uint32(e.pattern), color, e.pixels, false))
	}
	for _, e := range extendedMakeup {
		table = append(table, newHorizontalCode(e.bits, uint32(e.pattern), color, e.pixels, false))
	}
	// longest codes first, matching spec §4.7; harmless but explicit
	// given the prefix property makes any order correct.
	sort.SliceStable(table, func(i, j int) bool { return table[i].BitsUsed > table[j].BitsUsed })
	return table
}

var (
	whiteCodes = buildTable(White)
	blackCodes = buildTable(Black)
)

// Mode is a 2D (T.6) mode code, per spec §4.7/§4.8.
type Mode uint8

const (
	ModePass Mode = iota
	ModeHorizontal
	ModeV0
	ModeVR1
	ModeVR2
	ModeVR3
	ModeVL1
	ModeVL2
	ModeVL3
	ModeExtension
)

type modeCode struct {
	bits    int32
	pattern uint32
	mode    Mode
}

// modeTable is ITU-T T.4 Table 4 / T.6 mode codes, searched in an
// 8-bit window.
var modeTable = []modeCode{
	{1, 0x1, ModeV0},
	{3, 0x1, ModeHorizontal},
	{3, 0x3, ModeVR1},
	{3, 0x2, ModeVL1},
	{4, 0x1, ModePass},
	{6, 0x3, ModeVR2},
	{6, 0x2, ModeVL2},
	{7, 0x3, ModeVR3},
	{7, 0x2, ModeVL3},
	{7, 0x1, ModeExtension},
}

type modeEntry struct {
	bits  int32
	mask  uint32
	value uint32
	mode  Mode
}

func buildModeTable() []modeEntry {
	const window = 8
	out := make([]modeEntry, len(modeTable))
	for i, e := range modeTable {
		shift := uint(window - e.bits)
		out[i] = modeEntry{
			bits:  e.bits,
			mask:  ((uint32(1) << uint(e.bits)) - 1) << shift,
			value: e.pattern << shift,
			mode:  e.mode,
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].bits > out[j].bits })
	return out
}

var modeCodes = buildModeTable()
