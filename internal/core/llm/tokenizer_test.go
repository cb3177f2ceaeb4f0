package llm_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/scholarfeed/internal/core/llm"
	"github.com/lueurxax/scholarfeed/internal/process/enrichment"
)

func newTokenizer(t *testing.T) *llm.TiktokenTokenizer {
	t.Helper()

	tok, err := llm.NewTokenizer("gpt-4o-mini")
	if err != nil {
		t.Skipf("tokenizer encoding unavailable: %v", err)
	}

	return tok
}

func TestTiktokenTruncate_StaysWithinLimit(t *testing.T) {
	tok := newTokenizer(t)

	texts := map[string]string{
		"ascii":    strings.Repeat("Self-attention relates positions of a sequence. ", 200),
		"japanese": strings.Repeat("深層学習による機械翻訳の研究。", 200),
		"mixed":    strings.Repeat("Transformer 変換器 🤖 naïve café résumé ", 200),
	}

	for _, ceiling := range []int{50, 200, 1000} {
		limit := enrichment.TruncationLimit(ceiling)

		for name, text := range texts {
			require.Greater(t, tok.Count(text), limit, name)

			got := tok.Truncate(text, limit)

			assert.True(t, utf8.ValidString(got), "%s/%d: invalid UTF-8 tail", name, ceiling)
			assert.True(t, strings.HasPrefix(text, got), "%s/%d: not a prefix", name, ceiling)
			assert.LessOrEqual(t, tok.Count(got), limit, "%s/%d", name, ceiling)
			assert.Greater(t, tok.Count(got), limit/2, "%s/%d: cut far below the limit", name, ceiling)
		}
	}
}

func TestTiktokenTruncate_ShortTextUnchanged(t *testing.T) {
	tok := newTokenizer(t)

	text := "Attention Is All You Need"

	assert.Equal(t, text, tok.Truncate(text, 100))
	assert.Empty(t, tok.Truncate(text, 0))
}
