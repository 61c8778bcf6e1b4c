package chunker

import "unicode/utf8"

// EstimateTokens gives a rough token count using the ~4 chars/token heuristic.
// Exact tokenization is not required for sizing; Config.Estimate can swap in
// a real tokenizer.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := utf8.RuneCountInString(text) / 4
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
