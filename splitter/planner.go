package splitter

import (
	"log/slog"
)

// Plan recursively partitions rng into segments of at most opts.MaxChars, trying header
// boundaries first, then paragraph boundaries, then line boundaries. The result tiles rng
// exactly. A range no strategy can subdivide is returned whole.
func Plan(text Text, rng Segment, tokens Tokens, opts Options, logger *slog.Logger) []Segment {
	logger = loggerOrDefault(logger)
	return plan(text, rng, tokens, protectedFences(tokens.Fences, opts), opts, logger)
}

func plan(text Text, rng Segment, tokens Tokens, fences []CodeFence, opts Options, logger *slog.Logger) []Segment {
	if rng.Len() <= opts.MaxChars {
		return []Segment{rng}
	}

	splits := splitByHeaders(rng, tokens.Headers, opts.HeaderLevels, logger)
	if len(splits) <= 1 {
		splits = splitByParagraphs(text, rng, fences)
	}
	if len(splits) <= 1 {
		splits = splitByLines(text, rng, opts.MaxChars, fences)
	}

	if len(splits) > 1 {
		var segments []Segment
		for _, s := range splits {
			segments = append(segments, plan(text, s, tokens, fences, opts, logger)...)
		}
		return segments
	}

	if withinFence(rng, tokens.Fences) {
		logger.Warn("Code block exceeds maxChars",
			slog.Int("size", rng.Len()), slog.Int("max_chars", opts.MaxChars))
	} else {
		logger.Warn("Segment exceeds maxChars and cannot be split further",
			slog.Int("size", rng.Len()), slog.Int("max_chars", opts.MaxChars))
	}

	return []Segment{rng}
}

func withinFence(rng Segment, fences []CodeFence) bool {
	for _, f := range fences {
		if f.Start <= rng.Start && f.End >= rng.End {
			return true
		}
	}
	return false
}

func splitByHeaders(rng Segment, headers []HeaderToken, levels []int, logger *slog.Logger) []Segment {
	var starts []int
	for _, h := range headers {
		if h.Start >= rng.Start && h.End <= rng.End && isSplitLevel(levels, h.Level) {
			starts = append(starts, h.Start)
		}
	}
	if len(starts) == 0 {
		return []Segment{rng}
	}

	var segments []Segment
	if starts[0] > rng.Start {
		segments = append(segments, Segment{Start: rng.Start, End: starts[0]})
	}
	for i, start := range starts {
		end := rng.End
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		segments = append(segments, Segment{Start: start, End: end})
	}

	checkCoverage(rng, segments, logger)

	if len(segments) > 1 {
		return segments
	}
	return []Segment{rng}
}

// checkCoverage logs any gap or overlap between rng and the segments that should tile it.
func checkCoverage(rng Segment, segments []Segment, logger *slog.Logger) {
	if first := segments[0]; first.Start != rng.Start {
		logger.Error("First segment does not start at range start",
			slog.Int("segment_start", first.Start), slog.Int("range_start", rng.Start))
	}
	if last := segments[len(segments)-1]; last.End != rng.End {
		logger.Error("Last segment does not end at range end",
			slog.Int("segment_end", last.End), slog.Int("range_end", rng.End))
	}
	for i := 1; i < len(segments); i++ {
		if segments[i].Start != segments[i-1].End {
			logger.Error("Gap or overlap between segments",
				slog.Int("previous_end", segments[i-1].End), slog.Int("start", segments[i].Start))
		}
	}
}

// splitByParagraphs breaks after every run of two or more newlines.
func splitByParagraphs(text Text, rng Segment, fences []CodeFence) []Segment {
	var segments []Segment
	current := rng.Start

	for i := rng.Start; i+1 < rng.End; i++ {
		if text[i] != '\n' || text[i+1] != '\n' {
			continue
		}
		j := i
		for j < rng.End && text[j] == '\n' {
			j++
		}
		if _, blocked := insideProtected(j, fences); !blocked {
			segments = append(segments, Segment{Start: current, End: j})
			current = j
		}
		i = j - 1
	}

	if current < rng.End {
		segments = append(segments, Segment{Start: current, End: rng.End})
	}

	if len(segments) > 1 {
		return segments
	}
	return []Segment{rng}
}

// splitByLines greedily packs whole lines, counting each line's newline.
func splitByLines(text Text, rng Segment, maxChars int, fences []CodeFence) []Segment {
	var segments []Segment
	current := rng.Start
	currentLen := 0
	lineStart := rng.Start

	for _, n := range lineLengths(text, rng) {
		lineLen := n + 1
		if _, blocked := insideProtected(lineStart, fences); currentLen+lineLen > maxChars && currentLen > 0 && !blocked {
			segments = append(segments, Segment{Start: current, End: lineStart})
			current = lineStart
			currentLen = lineLen
		} else {
			currentLen += lineLen
		}
		lineStart += lineLen
	}

	if current < rng.End {
		segments = append(segments, Segment{Start: current, End: rng.End})
	}

	if len(segments) > 1 {
		return segments
	}
	return []Segment{rng}
}

func lineLengths(text Text, rng Segment) []int {
	var lengths []int
	start := rng.Start
	for i := rng.Start; i < rng.End; i++ {
		if text[i] == '\n' {
			lengths = append(lengths, i-start)
			start = i + 1
		}
	}
	return append(lengths, rng.End-start)
}
