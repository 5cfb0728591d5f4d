package splitter_test

import (
	"testing"

	"github.com/MegaGrindStone/go-docsplit/splitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := splitter.DefaultOptions()

	require.NoError(t, opts.Validate())
	assert.Equal(t, 2048, opts.MaxChars)
	assert.Equal(t, 500, opts.MinChars)
	assert.Equal(t, 256, opts.Overlap)
	assert.Equal(t, []int{1, 2}, opts.HeaderLevels)
	assert.True(t, opts.PreserveCodeBlocks)
	assert.True(t, opts.FallbackCloseOnNestedOpen)
	assert.True(t, opts.Trim)
	assert.Empty(t, opts.IDPrefix)
	assert.Nil(t, opts.CodeBlockMaxChars)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*splitter.Options)
		want   []string
	}{
		{
			name:   "non-positive maxChars reports every dependent rule",
			mutate: func(o *splitter.Options) { o.MaxChars = 0 },
			want: []string{
				"maxChars must be positive, got 0",
				"overlap (256) must be less than maxChars (0)",
				"minChars (500) must be less than maxChars (0)",
			},
		},
		{
			name:   "negative minChars",
			mutate: func(o *splitter.Options) { o.MinChars = -1 },
			want:   []string{"minChars must be non-negative, got -1"},
		},
		{
			name:   "minChars equal to maxChars",
			mutate: func(o *splitter.Options) { o.MinChars = 2048 },
			want:   []string{"minChars (2048) must be less than maxChars (2048)"},
		},
		{
			name:   "negative overlap",
			mutate: func(o *splitter.Options) { o.Overlap = -5 },
			want:   []string{"overlap must be non-negative, got -5"},
		},
		{
			name:   "overlap equal to maxChars",
			mutate: func(o *splitter.Options) { o.Overlap = 2048 },
			want:   []string{"overlap (2048) must be less than maxChars (2048)"},
		},
		{
			name:   "no header levels",
			mutate: func(o *splitter.Options) { o.HeaderLevels = nil },
			want:   []string{"headerLevels must contain at least one level"},
		},
		{
			name:   "header level out of range",
			mutate: func(o *splitter.Options) { o.HeaderLevels = []int{1, 7} },
			want:   []string{"headerLevels must contain values between 1 and 6, got 7"},
		},
		{
			name:   "header level zero",
			mutate: func(o *splitter.Options) { o.HeaderLevels = []int{0} },
			want:   []string{"headerLevels must contain values between 1 and 6, got 0"},
		},
		{
			name:   "negative code block threshold",
			mutate: func(o *splitter.Options) { o.CodeBlockMaxChars = intPtr(-1) },
			want:   []string{"codeBlockMaxChars must be non-negative, got -1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := splitter.DefaultOptions()
			tt.mutate(&opts)

			err := opts.Validate()

			require.Error(t, err)
			assert.ErrorIs(t, err, splitter.ErrInvalidOptions)
			for _, msg := range tt.want {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	opts := splitter.DefaultOptions()
	opts.HeaderLevels = []int{}

	s, err := splitter.New(opts, nil)

	assert.Nil(t, s)
	assert.ErrorIs(t, err, splitter.ErrInvalidOptions)
}
