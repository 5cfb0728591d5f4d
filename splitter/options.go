package splitter

import (
	"errors"
	"fmt"
	"slices"
)

// Options controls how a Markdown document is split into chunks. All sizes are measured in
// Unicode code points.
type Options struct {
	// MaxChars is the target upper bound of a chunk, not counting overlap.
	MaxChars int
	// MinChars is the size under which adjacent segments are merged.
	MinChars int
	// Overlap is the number of characters copied backward from the previous segment.
	Overlap int
	// HeaderLevels lists the header levels used as primary split points and title candidates.
	HeaderLevels []int
	// PreserveCodeBlocks forbids boundaries inside well-formed fenced code blocks.
	PreserveCodeBlocks bool
	// CodeBlockMaxChars is the size above which a closed fence may be split.
	// Nil means twice MaxChars. An explicit zero makes every closed fence breakable.
	CodeBlockMaxChars *int
	// FallbackCloseOnNestedOpen closes an open fence when another opener appears inside it.
	FallbackCloseOnNestedOpen bool
	// IDPrefix is prepended to every generated chunk ID.
	IDPrefix string
	// Trim strips surrounding whitespace from chunk content. Offsets are unaffected.
	Trim bool
}

// FinalMergeFactor bounds the last merge of an undersized trailing segment into its predecessor,
// as a multiple of MaxChars.
const FinalMergeFactor = 1.5

const (
	minHeaderLevel = 1
	maxHeaderLevel = 6
)

// ErrInvalidOptions is wrapped by every violation reported by Options.Validate.
var ErrInvalidOptions = errors.New("invalid splitter options")

// DefaultOptions returns the options used when a caller has no particular policy.
func DefaultOptions() Options {
	return Options{
		MaxChars:                  2048,
		MinChars:                  500,
		Overlap:                   256,
		HeaderLevels:              []int{1, 2},
		PreserveCodeBlocks:        true,
		FallbackCloseOnNestedOpen: true,
		Trim:                      true,
	}
}

// Validate checks every rule and reports all violations at once.
func (o Options) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidOptions, fmt.Sprintf(format, args...)))
	}

	if o.MaxChars <= 0 {
		invalid("maxChars must be positive, got %d", o.MaxChars)
	}
	if o.MinChars < 0 {
		invalid("minChars must be non-negative, got %d", o.MinChars)
	}
	if o.Overlap < 0 {
		invalid("overlap must be non-negative, got %d", o.Overlap)
	}
	if o.Overlap >= o.MaxChars {
		invalid("overlap (%d) must be less than maxChars (%d)", o.Overlap, o.MaxChars)
	}
	if o.MinChars >= o.MaxChars {
		invalid("minChars (%d) must be less than maxChars (%d)", o.MinChars, o.MaxChars)
	}
	if o.CodeBlockMaxChars != nil && *o.CodeBlockMaxChars < 0 {
		invalid("codeBlockMaxChars must be non-negative, got %d", *o.CodeBlockMaxChars)
	}
	if len(o.HeaderLevels) == 0 {
		invalid("headerLevels must contain at least one level")
	}
	for _, level := range o.HeaderLevels {
		if level < minHeaderLevel || level > maxHeaderLevel {
			invalid("headerLevels must contain values between %d and %d, got %d",
				minHeaderLevel, maxHeaderLevel, level)
			break
		}
	}

	return errors.Join(errs...)
}

// codeBlockLimit resolves the oversize threshold for closed fences.
func (o Options) codeBlockLimit() int {
	if o.CodeBlockMaxChars != nil {
		return *o.CodeBlockMaxChars
	}
	return o.MaxChars * 2
}

func isSplitLevel(levels []int, level int) bool {
	return slices.Contains(levels, level)
}
