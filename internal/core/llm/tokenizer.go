package llm

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// Tokenizer counts and truncates text in model tokens.
type Tokenizer interface {
	Count(text string) int
	Truncate(text string, maxTokens int) string
}

// TiktokenTokenizer uses the BPE encoding of the configured model.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

var _ Tokenizer = (*TiktokenTokenizer)(nil)

// NewTokenizer picks the encoding for model, falling back to cl100k_base
// for models tiktoken does not know.
func NewTokenizer(model string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("load tokenizer encoding: %w", err)
		}
	}

	return &TiktokenTokenizer{enc: enc}, nil
}

func (t *TiktokenTokenizer) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

func (t *TiktokenTokenizer) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}

	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}

	// A token boundary may fall inside a multi-byte character, and the
	// shortened prefix may encode differently; shrink until both hold.
	for n := maxTokens; n > 0; n-- {
		out := trimPartialRune(t.enc.Decode(tokens[:n]))
		if t.Count(out) <= maxTokens {
			return out
		}
	}

	return ""
}

// trimPartialRune drops trailing bytes that do not form a complete rune.
func trimPartialRune(s string) string {
	for s != "" {
		r, size := utf8.DecodeLastRuneInString(s)
		if r != utf8.RuneError || size != 1 {
			break
		}

		s = s[:len(s)-size]
	}

	return s
}
