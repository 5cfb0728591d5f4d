package splitter

// Merge combines undersized neighbours left to right, then snaps every boundary out of
// non-breakable fences. The result is ordered, non-overlapping and free of empty segments.
func Merge(segments []Segment, minChars, maxChars int, fences []CodeFence) []Segment {
	if len(segments) <= 1 {
		return segments
	}

	var merged []Segment
	current := segments[0]

	for i := 1; i < len(segments); i++ {
		next := segments[i]
		combined := current.Len() + next.Len()
		isLast := i == len(segments)-1

		undersized := next.Len() < minChars || current.Len() < minChars
		if (undersized && combined <= maxChars) || (isLast && next.Len() < minChars) {
			current.End = next.End
			continue
		}

		merged = append(merged, current)
		current = next
	}

	if current.Len() < minChars && len(merged) > 0 {
		last := &merged[len(merged)-1]
		if float64(last.Len()+current.Len()) <= FinalMergeFactor*float64(maxChars) {
			last.End = current.End
		} else {
			merged = append(merged, current)
		}
	} else {
		merged = append(merged, current)
	}

	return snapToFences(merged, fences)
}

func snapToFences(segments []Segment, fences []CodeFence) []Segment {
	out := make([]Segment, 0, len(segments))
	prevEnd := -1

	for _, s := range segments {
		if f, ok := insideProtected(s.End, fences); ok {
			s.End = f.End
		}
		if f, ok := insideProtected(s.Start, fences); ok {
			s.Start = f.End
		}
		if prevEnd >= 0 && s.Start < prevEnd {
			s.Start = prevEnd
		}
		if s.Start < s.End {
			out = append(out, s)
			prevEnd = s.End
		}
	}

	return out
}
