package ingestion_engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 19 runes, approx 5 tokens
const line = "aaaa aaaa aaaa aaaa"

func TestChunkLinesGroupsByTokenBudget(t *testing.T) {
	lines := []string{line, line, line, line}

	chunks := chunkLines(lines, 10, 0)

	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Pos)
	assert.Equal(t, 1, chunks[1].Pos)
	assert.Equal(t, line+"\n"+line, chunks[0].Text)
	assert.Equal(t, 10, chunks[0].TokenCnt)
}

func TestChunkLinesOverlapSeedsNextChunk(t *testing.T) {
	lines := []string{"one " + line, "two " + line, "three " + line}

	chunks := chunkLines(lines, 10, 5)

	require.GreaterOrEqual(t, len(chunks), 2)
	// The second chunk starts with the tail of the first.
	firstLines := strings.Split(chunks[0].Text, "\n")
	secondLines := strings.Split(chunks[1].Text, "\n")
	assert.Equal(t, firstLines[len(firstLines)-1], secondLines[0])
}

func TestChunkLinesShortInputStillEmits(t *testing.T) {
	chunks := chunkLines([]string{"just one short line"}, 500, 50)

	require.Len(t, chunks, 1)
	assert.Equal(t, "just one short line", chunks[0].Text)
}

func TestChunkLinesEmptyInput(t *testing.T) {
	assert.Empty(t, chunkLines(nil, 500, 50))
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 0, approxTokens(""))
	assert.Equal(t, 1, approxTokens("ab"))
	assert.Equal(t, 5, approxTokens(line))
}
