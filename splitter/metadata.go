package splitter

import (
	"fmt"
	"regexp"
	"strings"
)

// RootTitle is the title of content that precedes every header.
const RootTitle = "ROOT"

// Chunk is a retrieval-sized piece of a document with its structural metadata.
type Chunk struct {
	Content     string   `json:"content"`
	Title       string   `json:"title"`
	ChunkNumber int      `json:"chunkNumber"`
	UniqueID    string   `json:"uniqueId"`
	StartChar   int      `json:"startChar"`
	EndChar     int      `json:"endChar"`
	HeaderPath  []string `json:"headerPath"`
	SourceLink  string   `json:"sourceLink,omitempty"`
}

type outlineEntry struct {
	level int
	text  string
}

var (
	slugStripPattern  = regexp.MustCompile(`[^\w\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}-]`)
	slugSpacePattern  = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)
	slugHyphenPattern = regexp.MustCompile(`-+`)
)

// Slugify lowercases s, drops characters other than ASCII word characters, whitespace and
// hyphens, and joins the remaining words with single hyphens.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = slugStripPattern.ReplaceAllString(s, "")
	s = slugSpacePattern.ReplaceAllString(s, "-")
	s = slugHyphenPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Attach derives title, header path, numbering, IDs and source links for raw chunks in order.
func Attach(raw []RawChunk, headers []HeaderToken, sources []SourceRange, headerLevels []int, idPrefix string) []Chunk {
	chunks := make([]Chunk, 0, len(raw))
	titleCounts := make(map[string]int)
	usedIDs := make(map[string]struct{})

	var stack []outlineEntry
	next := 0

	for _, rc := range raw {
		for next < len(headers) && headers[next].Start < rc.End {
			h := headers[next]
			for len(stack) > 0 && stack[len(stack)-1].level >= h.Level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, outlineEntry{level: h.Level, text: h.Text})
			next++
		}

		path := make([]string, len(stack))
		for i, e := range stack {
			path[i] = e.text
		}

		title := titleFor(stack, headerLevels)
		number := titleCounts[title]
		titleCounts[title] = number + 1

		chunks = append(chunks, Chunk{
			Content:     rc.Content,
			Title:       title,
			ChunkNumber: number,
			UniqueID:    uniqueID(idPrefix, title, number, usedIDs),
			StartChar:   rc.Start,
			EndChar:     rc.End,
			HeaderPath:  path,
			SourceLink:  resolveSourceLink(rc, sources),
		})
	}

	return chunks
}

// titleFor prefers the deepest entry at a split level, then the deepest entry of any level.
func titleFor(stack []outlineEntry, levels []int) string {
	for i := len(stack) - 1; i >= 0; i-- {
		if isSplitLevel(levels, stack[i].level) {
			return stack[i].text
		}
	}
	if len(stack) > 0 {
		return stack[len(stack)-1].text
	}
	return RootTitle
}

// uniqueID builds "[prefix-]slug-n". Distinct titles sharing a slug would collide, so n is
// bumped until the ID is unused.
func uniqueID(prefix, title string, number int, used map[string]struct{}) string {
	base := Slugify(title)
	if prefix != "" {
		base = prefix + "-" + base
	}

	id := fmt.Sprintf("%s-%d", base, number)
	for n := number + 1; ; n++ {
		if _, taken := used[id]; !taken {
			break
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
	used[id] = struct{}{}
	return id
}

func resolveSourceLink(rc RawChunk, sources []SourceRange) string {
	if len(sources) == 0 {
		return ""
	}

	anchor := rc.Anchor()
	for _, r := range sources {
		if anchor >= r.Start && anchor < r.End {
			return r.URL
		}
	}

	chunk := Segment{Start: rc.Start, End: rc.End}
	if r, ok := latestStart(sources, func(r SourceRange) bool { return chunk.Contains(r.Start) }); ok {
		return r.URL
	}
	if r, ok := latestStart(sources, func(r SourceRange) bool { return r.Start < rc.End && r.End > rc.Start }); ok {
		return r.URL
	}
	return ""
}

func latestStart(sources []SourceRange, match func(SourceRange) bool) (SourceRange, bool) {
	var (
		best  SourceRange
		found bool
	)
	for _, r := range sources {
		if match(r) && (!found || r.Start > best.Start) {
			best = r
			found = true
		}
	}
	return best, found
}
