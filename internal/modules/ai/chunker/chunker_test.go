package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestSplitDefaultGeometry(t *testing.T) {
	chunks, err := Collect("lesson-1", words(600), DefaultWindow, DefaultOverlap)
	require.NoError(t, err)

	// span 250 words, step 200 words: starts at 0, 200, 400
	require.Len(t, chunks, 3)
	assert.Equal(t, 0, chunks[0].StartWord)
	assert.Equal(t, 200, chunks[1].StartWord)
	assert.Equal(t, 400, chunks[2].StartWord)
	assert.Len(t, strings.Fields(chunks[0].Text), 250)
	assert.Len(t, strings.Fields(chunks[2].Text), 200)
	assert.True(t, strings.HasPrefix(chunks[1].Text, "w200 "))
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "lesson-1", c.SourceID)
	}
}

func TestSplitSmallWindow(t *testing.T) {
	chunks, err := Collect("s", "a b c d e f g", 12, 4)
	require.NoError(t, err)
	// span 3, step 2
	got := make([]string, 0, len(chunks))
	for _, c := range chunks {
		got = append(got, c.Text)
	}
	assert.Equal(t, []string{"a b c", "c d e", "e f g", "g"}, got)
}

func TestSplitEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   \n\t  "} {
		chunks, err := Collect("s", in, DefaultWindow, DefaultOverlap)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestSplitRejectsBadGeometry(t *testing.T) {
	cases := []struct{ window, overlap int }{
		{1000, 1000},
		{1000, 1200},
		{1000, -1},
		{3, 0},
		{1000, 998},
	}
	for _, tc := range cases {
		_, err := Split("s", "some text", tc.window, tc.overlap)
		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr), "window=%d overlap=%d", tc.window, tc.overlap)
		assert.Equal(t, tc.window, cfgErr.Window)
	}
}

func TestSplitIsRestartableAndStoppable(t *testing.T) {
	seq, err := Split("s", words(1000), DefaultWindow, DefaultOverlap)
	require.NoError(t, err)

	var first, second int
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	assert.Equal(t, first, second)

	taken := 0
	for range seq {
		taken++
		if taken == 2 {
			break
		}
	}
	assert.Equal(t, 2, taken)
}
