package pallas

import (
	"fmt"
	"sort"
)

// Range is a half-open rune offset range [Start, End) into a source file.
type Range struct {
	Start, End int
}

func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// eof is returned by the lexer's rune reader once the input is exhausted.
const eof = -1

// LineIndex maps rune offsets within a source file to 1-based line/column
// pairs, by recording the offset of every line start once up front.
type LineIndex struct {
	file        string
	lineOffsets []int
}

func NewLineIndex(file, src string) *LineIndex {
	idx := &LineIndex{file: file, lineOffsets: []int{0}}
	for i, r := range []rune(src) {
		if r == '\n' {
			idx.lineOffsets = append(idx.lineOffsets, i+1)
		}
	}
	return idx
}

// Position returns the 1-based line and column for a rune offset.
func (idx *LineIndex) Position(offset int) (line, column int) {
	line = sort.Search(len(idx.lineOffsets), func(i int) bool {
		return idx.lineOffsets[i] > offset
	})
	lineStart := idx.lineOffsets[line-1]
	return line, offset - lineStart + 1
}

// Span is a source location: a rune range plus the file it was read from,
// used by errors and exceptions to report where something went wrong.
type Span struct {
	File  string
	Range Range
}

func (s Span) String(idx *LineIndex) string {
	if idx == nil {
		return fmt.Sprintf("%s:%d", s.File, s.Range.Start)
	}
	line, col := idx.Position(s.Range.Start)
	return fmt.Sprintf("%s:%d:%d", s.File, line, col)
}
