package bot

import (
	"strings"
	"unicode"
)

// KnowledgeEntry is a curated question/answer pair. Entries are checked
// before the responder so curated answers win over generated ones.
type KnowledgeEntry struct {
	Question string
	Answer   string
}

const knowledgeThreshold = 0.7

// MatchKnowledge returns the answer of the best-matching entry when the
// visitor message covers enough of a stored question.
func MatchKnowledge(entries []KnowledgeEntry, message string) (string, bool) {
	messageTokens := tokenize(message)
	if len(messageTokens) == 0 {
		return "", false
	}

	bestScore := 0.0
	bestAnswer := ""
	for _, entry := range entries {
		questionTokens := tokenize(entry.Question)
		if len(questionTokens) == 0 {
			continue
		}

		overlap := 0
		for token := range questionTokens {
			if _, ok := messageTokens[token]; ok {
				overlap++
			}
		}

		score := float64(overlap) / float64(len(questionTokens))
		if score > bestScore {
			bestScore = score
			bestAnswer = entry.Answer
		}
	}

	if bestScore >= knowledgeThreshold {
		return bestAnswer, true
	}
	return "", false
}

// tokenize lowercases and splits on non-alphanumerics, dropping tokens too
// short to carry meaning.
func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, field := range fields {
		if len(field) > 2 {
			tokens[field] = struct{}{}
		}
	}
	return tokens
}
