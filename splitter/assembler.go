package splitter

import "strings"

// RawChunk is a positioned slice of text before metadata is attached. Start includes any
// overlap copied from the previous segment; OverlapStart is the segment's own start.
type RawChunk struct {
	Content         string
	Start           int
	End             int
	OverlapStart    int
	HasOverlapStart bool
}

// Anchor returns the non-overlapped start of the chunk.
func (c RawChunk) Anchor() int {
	if c.HasOverlapStart {
		return c.OverlapStart
	}
	return c.Start
}

// Assemble turns segments into raw chunks, extending each one after the first backward by up
// to overlap characters. Overlap never starts inside a non-breakable fence. Chunks with no
// non-whitespace content are dropped.
func Assemble(text Text, segments []Segment, overlap int, trim bool, fences []CodeFence) []RawChunk {
	chunks := make([]RawChunk, 0, len(segments))

	for i, seg := range segments {
		start := seg.Start
		if i > 0 && overlap > 0 {
			prev := segments[i-1]
			start = max(prev.End-min(overlap, prev.Len()), prev.Start)
			if f, ok := insideProtected(start, fences); ok {
				start = f.End
			}
		}

		content := text.Slice(start, seg.End)
		if strings.TrimSpace(content) == "" {
			continue
		}
		if trim {
			content = strings.TrimSpace(content)
		}

		chunks = append(chunks, RawChunk{
			Content:         content,
			Start:           start,
			End:             seg.End,
			OverlapStart:    seg.Start,
			HasOverlapStart: i > 0,
		})
	}

	return chunks
}
