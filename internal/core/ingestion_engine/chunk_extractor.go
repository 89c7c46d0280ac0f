package ingestion_engine

import (
	"strings"
)

// chunkLines groups text lines into token-bounded chunks with optional
// overlap.
//
// lines:          non-empty extracted text lines.
// targetTokens:   approximate tokens per chunk.
// overlapTokens:  tokens to retain from the end of the previous chunk as
//                 seed of the next.
func chunkLines(lines []string, targetTokens, overlapTokens int) []chunk {
	var (
		out    []chunk
		buf    []string
		tokSum int
		pos    int
	)

	// flush emits the current buffer as a chunk and prepares the buffer for
	// the next one, preserving overlapTokens from the tail if configured.
	flush := func() {
		if tokSum == 0 {
			return
		}
		out = append(out, chunk{Pos: pos, Text: strings.Join(buf, "\n"), TokenCnt: tokSum})
		pos++

		if overlapTokens > 0 {
			keep := []string{}
			remain := overlapTokens
			for j := len(buf) - 1; j >= 0 && remain > 0; j-- {
				t := approxTokens(buf[j])
				keep = append([]string{buf[j]}, keep...) // prepend to keep original order
				remain -= t
			}
			buf = keep

			tokSum = 0
			for _, s := range buf {
				tokSum += approxTokens(s)
			}
		} else {
			buf = buf[:0]
			tokSum = 0
		}
	}

	for _, line := range lines {
		buf = append(buf, line)
		tokSum += approxTokens(line)

		if tokSum >= targetTokens {
			flush()
		}
	}

	// Emit remaining tail (if any). The tail may consist only of overlap
	// already emitted; skip it in that case.
	if len(out) == 0 || tokSum > overlapTokens {
		flush()
	}
	return out
}

// approxTokens is a cheap token estimator (~4 chars ≈ 1 token).
func approxTokens(s string) int {
	n := len([]rune(s))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}
