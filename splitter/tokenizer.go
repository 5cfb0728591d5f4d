package splitter

import (
	"log/slog"
	"regexp"
	"strings"
)

// HeaderToken is an ATX header found outside any protected code fence.
type HeaderToken struct {
	Level int
	Text  string
	Start int
	End   int
}

// CodeFence is a fenced code block. Breakable fences are unclosed, force-closed by a nested
// opener, or larger than the configured oversize threshold.
type CodeFence struct {
	Start     int
	End       int
	Char      rune
	Length    int
	Closed    bool
	Breakable bool
	Info      string
}

// SourceRange is the span of text governed by a "Sources" block, and the first URL listed in it.
type SourceRange struct {
	Start int
	End   int
	URL   string
}

// Tokens holds the structural markers of a document, each list ordered by start offset.
type Tokens struct {
	Headers []HeaderToken
	Fences  []CodeFence
	Sources []SourceRange
}

var (
	headerPattern        = regexp.MustCompile(`^[ \t]{0,3}(#{1,6})[ \t]+(.+?)(?:[ \t]+#+)?[ \t]*$`)
	dashLinePattern      = regexp.MustCompile(`^\s*---\s*$`)
	blankLinePattern     = regexp.MustCompile(`^\s*$`)
	sourcesHeaderPattern = regexp.MustCompile(`(?i)^\s*Sources:\s*$`)
	bulletPattern        = regexp.MustCompile(`^\s*[-*]\s+(\S+)`)
	absoluteURLPattern   = regexp.MustCompile(`(?i)^https?://`)
)

// Tokenize scans text once and returns its headers, code fences and source ranges.
func Tokenize(text Text, opts Options, logger *slog.Logger) Tokens {
	logger = loggerOrDefault(logger)
	lines := text.lines()

	fences := findFences(text, lines, opts, logger)
	headers := findHeaders(text, lines, fences)

	return Tokens{
		Headers: headers,
		Fences:  fences,
		Sources: findSourceRanges(text, lines),
	}
}

func findHeaders(text Text, lines []textLine, fences []CodeFence) []HeaderToken {
	var headers []HeaderToken
	for _, l := range lines {
		m := headerPattern.FindStringSubmatch(text.lineText(l))
		if m == nil {
			continue
		}
		title := strings.TrimSpace(m[2])
		if title == "" {
			continue
		}
		h := HeaderToken{
			Level: len(m[1]),
			Text:  title,
			Start: l.start,
			End:   l.end,
		}
		if insideProtectedFence(h, fences) {
			continue
		}
		headers = append(headers, h)
	}
	return headers
}

func insideProtectedFence(h HeaderToken, fences []CodeFence) bool {
	for _, f := range fences {
		if !f.Breakable && h.Start >= f.Start && h.End <= f.End {
			return true
		}
	}
	return false
}

type fenceOpener struct {
	char   rune
	length int
	info   string
}

// parseFenceOpener matches up to three spaces of indentation followed by a run of at least three
// backticks or tildes.
func parseFenceOpener(line string) (fenceOpener, bool) {
	ch, n, rest, ok := fenceRun(line)
	if !ok {
		return fenceOpener{}, false
	}
	return fenceOpener{char: ch, length: n, info: strings.TrimSpace(rest)}, true
}

// isFenceCloser reports whether line closes a fence opened with length runes of ch.
func isFenceCloser(line string, ch rune, length int) bool {
	c, n, rest, ok := fenceRun(line)
	return ok && c == ch && n >= length && strings.TrimSpace(rest) == ""
}

func fenceRun(line string) (rune, int, string, bool) {
	indent := 0
	for indent < len(line) && indent < 4 && (line[indent] == ' ' || line[indent] == '\t') {
		indent++
	}
	if indent > 3 || indent == len(line) {
		return 0, 0, "", false
	}

	ch := rune(line[indent])
	if ch != '`' && ch != '~' {
		return 0, 0, "", false
	}

	end := indent
	for end < len(line) && rune(line[end]) == ch {
		end++
	}
	n := end - indent
	if n < 3 {
		return 0, 0, "", false
	}
	return ch, n, line[end:], true
}

func findFences(text Text, lines []textLine, opts Options, logger *slog.Logger) []CodeFence {
	var (
		fences []CodeFence
		open   *CodeFence
	)

	startFence := func(l textLine, op fenceOpener) *CodeFence {
		return &CodeFence{Start: l.start, Char: op.char, Length: op.length, Info: op.info}
	}

	for _, l := range lines {
		line := text.lineText(l)
		op, isOpener := parseFenceOpener(line)

		if open == nil {
			if isOpener {
				open = startFence(l, op)
			}
			continue
		}

		switch {
		case isFenceCloser(line, open.Char, open.Length):
			open.End = l.end
			open.Closed = true
			fences = append(fences, *open)
			open = nil
		case opts.FallbackCloseOnNestedOpen && isOpener:
			logger.Warn("Fence opened inside an open fence, closing the previous one as malformed",
				slog.Int("start", open.Start), slog.Int("nested_start", l.start))
			open.End = max(0, l.start-1)
			open.Breakable = true
			fences = append(fences, *open)
			open = startFence(l, op)
		}
	}

	if open != nil {
		logger.Warn("Unclosed code fence at end of input, marking as breakable",
			slog.Int("start", open.Start))
		open.End = text.Len()
		open.Breakable = true
		fences = append(fences, *open)
	}

	limit := opts.codeBlockLimit()
	for i := range fences {
		if fences[i].Closed && fences[i].End-fences[i].Start > limit {
			fences[i].Breakable = true
		}
	}

	return fences
}

type sourceBlock struct {
	startLine int
	endLine   int
	url       string
}

func findSourceRanges(text Text, lines []textLine) []SourceRange {
	var blocks []sourceBlock
	for i := 0; i < len(lines); i++ {
		if !dashLinePattern.MatchString(text.lineText(lines[i])) {
			continue
		}

		j := i + 1
		for j < len(lines) && blankLinePattern.MatchString(text.lineText(lines[j])) {
			j++
		}
		if j >= len(lines) || !sourcesHeaderPattern.MatchString(text.lineText(lines[j])) {
			continue
		}

		k := j + 1
		for k < len(lines) && !dashLinePattern.MatchString(text.lineText(lines[k])) {
			k++
		}
		if k >= len(lines) {
			continue
		}

		blocks = append(blocks, sourceBlock{
			startLine: i,
			endLine:   k,
			url:       firstURL(text, lines[j+1:k]),
		})
		i = k
	}

	var ranges []SourceRange
	for b, block := range blocks {
		start := lines[block.endLine].end + 1
		end := text.Len()
		if b+1 < len(blocks) {
			end = lines[blocks[b+1].startLine].start
		}
		if block.url != "" && start < end {
			ranges = append(ranges, SourceRange{Start: start, End: end, URL: block.url})
		}
	}
	return ranges
}

func firstURL(text Text, lines []textLine) string {
	for _, l := range lines {
		m := bulletPattern.FindStringSubmatch(text.lineText(l))
		if m != nil && absoluteURLPattern.MatchString(m[1]) {
			return m[1]
		}
	}
	return ""
}

// enclosingFence returns the first fence strictly enclosing pos.
func enclosingFence(pos int, fences []CodeFence) (CodeFence, bool) {
	for _, f := range fences {
		if pos > f.Start && pos < f.End {
			return f, true
		}
	}
	return CodeFence{}, false
}

// insideProtected reports whether pos lies strictly inside a non-breakable fence.
func insideProtected(pos int, fences []CodeFence) (CodeFence, bool) {
	f, ok := enclosingFence(pos, fences)
	if !ok || f.Breakable {
		return CodeFence{}, false
	}
	return f, true
}

// protectedFences returns the fences that boundaries must respect under opts.
func protectedFences(fences []CodeFence, opts Options) []CodeFence {
	if !opts.PreserveCodeBlocks {
		return nil
	}
	return fences
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
