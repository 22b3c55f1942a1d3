package main

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomWordBelongsToItsTier(t *testing.T) {
	for range 100 {
		w := randomWord()

		list, ok := wordLists[w.Difficulty]
		require.True(t, ok, "unknown difficulty %q", w.Difficulty)
		assert.True(t, slices.Contains(list, w.Word), "%q not in %s list", w.Word, w.Difficulty)
	}
}

func TestRandomWordsCount(t *testing.T) {
	assert.Len(t, randomWords(30), 30)
	assert.Empty(t, randomWords(0))
}

func TestScoreForDifficulty(t *testing.T) {
	assert.Equal(t, 1, scoreForDifficulty("easy"))
	assert.Equal(t, 2, scoreForDifficulty("medium"))
	assert.Equal(t, 3, scoreForDifficulty("hard"))
	assert.Equal(t, 1, scoreForDifficulty("special"))
	assert.Equal(t, 1, scoreForDifficulty("nonsense"))
}

func TestThemedDrawHonorsCount(t *testing.T) {
	words := themedDraw("scifi", 5)
	require.Len(t, words, 5)

	pool := themedPool("scifi")
	for _, w := range words {
		assert.True(t, slices.Contains(pool, w), "%v not in scifi pool", w)
	}
}

func TestThemedDrawCapsAtPoolSize(t *testing.T) {
	pool := themedPool("legal")
	assert.Len(t, themedDraw("legal", 1000), len(pool))
}

func TestThemedDrawUnknownThemeFallsBack(t *testing.T) {
	words := themedDraw("no-such-theme", 3)
	require.Len(t, words, 3)

	pool := themedPool("programming")
	for _, w := range words {
		assert.True(t, slices.Contains(pool, w))
	}
}
