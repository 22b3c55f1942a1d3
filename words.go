package main

import (
	"math/rand/v2"
)

// Word is a single entry in a match's active set.
type Word struct {
	Word       string `json:"word"`
	Difficulty string `json:"difficulty"`
}

// Points awarded per difficulty tier. Unknown tiers score as easy.
func scoreForDifficulty(difficulty string) int {
	switch difficulty {
	case "medium":
		return 2
	case "hard":
		return 3
	default:
		return 1
	}
}

var difficulties = []string{"easy", "medium", "hard"}

var wordLists = map[string][]string{
	"easy": {
		"function", "variable", "array", "string", "number", "boolean",
		"object", "class", "method", "property", "value", "type",
		"loop", "if", "else", "switch", "case", "break", "return",
		"import", "export", "const", "let", "var", "this", "new",
	},
	"medium": {
		"promise", "async", "await", "callback", "closure", "prototype",
		"inheritance", "component", "state", "props", "effect", "hook",
		"middleware", "reducer", "action", "store", "context", "provider",
		"consumer", "fragment", "portal", "memo", "ref", "forward",
	},
	"hard": {
		"polymorphism", "encapsulation", "abstraction", "asynchronous",
		"recursion", "memoization", "algorithm", "optimization", "complexity",
		"authentication", "authorization", "serialization", "deserialization",
		"virtualization", "containerization", "microservice", "monolithic",
	},
}

// randomWord draws a difficulty tier uniformly at random, then a word
// uniformly from that tier's list.
func randomWord() Word {
	difficulty := difficulties[rand.IntN(len(difficulties))]
	list := wordLists[difficulty]

	return Word{
		Word:       list[rand.IntN(len(list))],
		Difficulty: difficulty,
	}
}

// randomWords produces n independent draws. Duplicates are permitted.
func randomWords(n int) []Word {
	words := make([]Word, n)
	for i := range words {
		words[i] = randomWord()
	}
	return words
}

// Themed word collections for weekly challenges. Each theme carries an
// extra "special" tier on top of the usual three.
var themedWords = map[string]map[string][]string{
	"scifi": {
		"easy":    {"alien", "robot", "space", "laser", "ship", "star", "moon", "mars"},
		"medium":  {"starship", "android", "quantum", "galaxy", "nebula", "cosmic"},
		"hard":    {"terraform", "wormhole", "antimatter", "cybernetic"},
		"special": {"interstellar", "hyperspace", "teleportation"},
	},
	"fantasy": {
		"easy":    {"magic", "sword", "spell", "dragon", "witch", "wizard"},
		"medium":  {"potion", "enchant", "mystic", "ancient", "scroll"},
		"hard":    {"sorcerer", "warlock", "conjure", "mythical"},
		"special": {"enchantment", "spellbinding", "supernatural"},
	},
	"programming": {
		"easy":    {"function", "var", "let", "const", "if", "else", "for", "while", "return", "class"},
		"medium":  {"async", "await", "promise", "export", "import", "default", "extends", "interface"},
		"hard":    {"middleware", "prototype", "constructor", "inheritance", "polymorphism"},
		"special": {"asynchronous", "authentication", "authorization", "dependency"},
	},
	"medical": {
		"easy":    {"heart", "brain", "lung", "bone", "cell", "blood"},
		"medium":  {"cardiac", "neural", "tissue", "muscle", "system"},
		"hard":    {"diagnosis", "pathology", "anatomy", "syndrome"},
		"special": {"cardiovascular", "neurological", "respiratory"},
	},
	"legal": {
		"easy":    {"law", "court", "judge", "case", "rule", "jury"},
		"medium":  {"verdict", "justice", "appeal", "motion", "client"},
		"hard":    {"plaintiff", "defendant", "evidence", "testimony"},
		"special": {"jurisdiction", "prosecution", "litigation"},
	},
	"christmas": {
		"easy":    {"gift", "snow", "tree", "star", "bell", "song"},
		"medium":  {"present", "holiday", "festive", "winter", "sleigh"},
		"hard":    {"reindeer", "mistletoe", "stocking", "garland"},
		"special": {"celebration", "decorations", "gingerbread"},
	},
}

// themedPool flattens a theme into {word,difficulty} tuples. Unknown themes
// fall back to programming.
func themedPool(theme string) []Word {
	tiers, ok := themedWords[theme]
	if !ok {
		tiers = themedWords["programming"]
	}

	pool := make([]Word, 0, 32)
	for _, difficulty := range []string{"easy", "medium", "hard", "special"} {
		for _, w := range tiers[difficulty] {
			pool = append(pool, Word{Word: w, Difficulty: difficulty})
		}
	}
	return pool
}

// themedDraw shuffles the theme's pool and returns up to count entries.
func themedDraw(theme string, count int) []Word {
	pool := themedPool(theme)

	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if count < 0 || count > len(pool) {
		count = len(pool)
	}
	return pool[:count]
}
