package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "attention is all you need", NormalizeTitle("  Attention  Is All\tYou Need. "))
	assert.Equal(t, NormalizeTitle("GRÜNE Äpfel"), NormalizeTitle("grüne äpfel"))
}

func TestIsSameTitle(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{name: "identical", a: "Attention Is All You Need", b: "Attention Is All You Need", want: true},
		{name: "case and spacing only", a: "attention is all  you need", b: "Attention Is All You Need.", want: true},
		{name: "one edit", a: "Attention Is All You Need", b: "Attention Is All You Neet", want: true},
		{name: "two edits", a: "Attention Is All You Need", b: "Attention Is All You Nets", want: false},
		{name: "unrelated", a: "Attention Is All You Need", b: "Deep Residual Learning", want: false},
		{name: "accented letter", a: "Réseaux de neurones", b: "Reseaux de neurones", want: true},
		{name: "trailing ellipsis", a: "Attention Is All You Need…", b: "Attention Is All You Need", want: true},
		{name: "two accented letters", a: "Réseaux évolués", b: "Reseaux evolues", want: false},
		{name: "kana one edit", a: "深層学習による翻訳", b: "深層学習による翻案", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSameTitle(tt.a, tt.b))
		})
	}
}

func TestTitleDistance(t *testing.T) {
	assert.Equal(t, 0, TitleDistance("BERT", "bert"))
	assert.Equal(t, 1, TitleDistance("BERT", "BERTs"))
	assert.Equal(t, 2, TitleDistance("kitten", "sitten!"))
	assert.Equal(t, 1, TitleDistance("café", "cafe"))
	assert.Equal(t, 1, TitleDistance("Attention Is All You Need…", "Attention Is All You Need"))
	assert.Equal(t, 2, TitleDistance("naïve café", "naive cafe"))
}

func TestBestTitleMatch(t *testing.T) {
	candidates := []string{
		"Deep Residual Learning for Image Recognition",
		"Attention Is All You Need (extended)",
		"Attention is all you need",
	}

	idx, dist, ok := BestTitleMatch("Attention Is All You Need", candidates)

	assert.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, 0, dist)
}

func TestBestTitleMatch_TieKeepsFirst(t *testing.T) {
	idx, dist, ok := BestTitleMatch("abc", []string{"abd", "abe"})

	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, dist)
}

func TestBestTitleMatch_Empty(t *testing.T) {
	idx, _, ok := BestTitleMatch("x", nil)

	assert.False(t, ok)
	assert.Equal(t, -1, idx)
}
