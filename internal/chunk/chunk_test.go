package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmpty(t *testing.T) {
	assert.Nil(t, Split("", 100))
	assert.Nil(t, Split("   \n\t  ", 100))
}

func TestSplitReconstruction(t *testing.T) {
	text := strings.Repeat("revenue increased due to higher unit volumes ", 200)

	chunks := Split(text, 256)
	require.NotEmpty(t, chunks)

	joined := strings.Join(chunks, " ")
	assert.Equal(t, strings.Join(strings.Fields(text), " "), joined)
}

func TestSplitBounds(t *testing.T) {
	text := strings.Repeat("word ", 1000)

	for _, chunk := range Split(text, 128) {
		assert.LessOrEqual(t, len(chunk), 128)
		assert.False(t, strings.HasPrefix(chunk, " "))
		assert.False(t, strings.HasSuffix(chunk, " "))
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 50)
	assert.Equal(t, Split(text, 100), Split(text, 100))
}

func TestSplitLongWord(t *testing.T) {
	long := strings.Repeat("x", 300)
	chunks := Split("short "+long+" tail", 100)

	require.Len(t, chunks, 3)
	assert.Equal(t, "short", chunks[0])
	assert.Equal(t, long, chunks[1])
	assert.Equal(t, "tail", chunks[2])
}

func TestSplitOverflowWordStartsNextChunk(t *testing.T) {
	// "aaaa bbbb" fits in 10 chars; "cccc" must start a new segment.
	chunks := Split("aaaa bbbb cccc", 10)
	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaa bbbb", chunks[0])
	assert.Equal(t, "cccc", chunks[1])
}

func TestSplitDefaultSize(t *testing.T) {
	text := strings.Repeat("alpha beta gamma ", 500)
	chunks := Split(text, 0)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), DefaultSize)
	}
}
