package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Run("Short text yields one chunk", func(t *testing.T) {
		chunks, err := Split(strings.Repeat("A", 50), Options{})
		require.NoError(t, err)
		assert.Len(t, chunks, 1)
		assert.Equal(t, strings.Repeat("A", 50), chunks[0])
	})

	t.Run("Empty input fails", func(t *testing.T) {
		_, err := Split("", Options{})
		assert.ErrorIs(t, err, ErrEmptyInput)

		_, err = Split("   \n\n\t  ", Options{})
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("Paragraph boundaries preferred", func(t *testing.T) {
		para1 := strings.Repeat("a", 60)
		para2 := strings.Repeat("b", 60)
		chunks, err := Split(para1+"\n\n"+para2, Options{ChunkSize: 80, ChunkOverlap: 0})
		require.NoError(t, err)
		assert.Len(t, chunks, 2)
		assert.Equal(t, para1, chunks[0])
		assert.Equal(t, para2, chunks[1])
	})

	t.Run("Sentences merged up to chunk size", func(t *testing.T) {
		text := "One sentence here. Another sentence here. A third one follows. And a fourth."
		chunks, err := Split(text, Options{ChunkSize: 45, ChunkOverlap: 0})
		require.NoError(t, err)
		assert.True(t, len(chunks) >= 2)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), 45)
		}
	})

	t.Run("No chunk exceeds chunk size", func(t *testing.T) {
		text := strings.Repeat("word ", 500) // 2500 chars
		chunks, err := Split(text, Options{ChunkSize: 100, ChunkOverlap: 20})
		require.NoError(t, err)
		assert.True(t, len(chunks) > 1)
		for i, c := range chunks {
			assert.LessOrEqualf(t, len(c), 100, "chunk %d too large", i)
		}
	})

	t.Run("Hard cut for unbroken text", func(t *testing.T) {
		text := strings.Repeat("x", 250)
		chunks, err := Split(text, Options{ChunkSize: 100, ChunkOverlap: 0})
		require.NoError(t, err)
		assert.Equal(t, []string{
			strings.Repeat("x", 100),
			strings.Repeat("x", 100),
			strings.Repeat("x", 50),
		}, chunks)
	})

	t.Run("Hard cut overlap preserves context", func(t *testing.T) {
		text := strings.Repeat("x", 150)
		chunks, err := Split(text, Options{ChunkSize: 100, ChunkOverlap: 40})
		require.NoError(t, err)
		// step = 60: [0,100) [60,150)
		assert.Len(t, chunks, 2)
		assert.Equal(t, 100, len(chunks[0]))
		assert.Equal(t, 90, len(chunks[1]))
	})

	t.Run("Overlap repeats trailing sentence", func(t *testing.T) {
		text := "First sentence is right here. Second one comes after. Third closes it out."
		chunks, err := Split(text, Options{ChunkSize: 60, ChunkOverlap: 30})
		require.NoError(t, err)
		require.True(t, len(chunks) >= 2)
		// Last sentence of chunk 0 should reappear at the start of chunk 1.
		assert.Contains(t, chunks[1], "Second one comes after.")
		assert.Contains(t, chunks[0], "Second one comes after.")
	})

	t.Run("Whitespace-only pieces filtered", func(t *testing.T) {
		text := strings.Repeat("a", 90) + "\n\n   \n\n" + strings.Repeat("b", 90)
		chunks, err := Split(text, Options{ChunkSize: 100, ChunkOverlap: 0})
		require.NoError(t, err)
		for _, c := range chunks {
			assert.NotEmpty(t, strings.TrimSpace(c))
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 100)
		opts := Options{ChunkSize: 300, ChunkOverlap: 60}

		first, err := Split(text, opts)
		require.NoError(t, err)
		second, err := Split(text, opts)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("Coverage without overlap", func(t *testing.T) {
		text := "Alpha beta gamma delta.\n\nEpsilon zeta eta theta.\n\nIota kappa lambda mu."
		chunks, err := Split(text, Options{ChunkSize: 30, ChunkOverlap: 0})
		require.NoError(t, err)

		// With zero overlap every word of the source must appear exactly once.
		counts := map[string]int{}
		for _, c := range chunks {
			for _, word := range strings.Fields(c) {
				counts[word]++
			}
		}
		for _, word := range strings.Fields(text) {
			assert.Equal(t, 1, counts[word], "word %q", word)
		}
	})

	t.Run("Defaults applied", func(t *testing.T) {
		text := strings.Repeat("sentence goes here. ", 200) // ~4000 chars
		chunks, err := Split(text, Options{})
		require.NoError(t, err)
		assert.True(t, len(chunks) > 1)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), DefaultChunkSize)
		}
	})
}
