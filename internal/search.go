package internal

import "unicode"

// snippetWidth is the number of characters kept around a match
const snippetWidth = 100

// SearchResult is one message matching a query
type SearchResult struct {
	Index   int    `json:"index" yaml:"index"`
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

// SearchMessages returns messages whose content contains query, ignoring
// case, in transcript order. A non-empty role restricts the search.
func SearchMessages(messages []Message, query string, role Role) []SearchResult {
	results := []SearchResult{}
	for i, msg := range messages {
		if role != "" && msg.Role != role {
			continue
		}
		if runeIndexFold(msg.Content, query) < 0 {
			continue
		}
		results = append(results, SearchResult{
			Index:   i,
			Role:    msg.Role,
			Content: msg.Content,
			Snippet: Snippet(msg.Content, query),
		})
	}
	return results
}

// Snippet returns up to snippetWidth characters of text centred on the first
// case-insensitive occurrence of query, with "..." marking truncated ends
func Snippet(text, query string) string {
	runes := []rune(text)
	pos := runeIndexFold(text, query)
	if pos < 0 {
		if len(runes) > snippetWidth {
			return string(runes[:snippetWidth]) + "..."
		}
		return text
	}

	start := pos - snippetWidth/2
	if start < 0 {
		start = 0
	}
	end := pos + snippetWidth/2
	if end > len(runes) {
		end = len(runes)
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet += "..."
	}
	return snippet
}

// runeIndexFold is a case-insensitive index measured in runes, so positions
// can be used to slice []rune(text)
func runeIndexFold(text, query string) int {
	haystack := lowerRunes(text)
	needle := lowerRunes(query)
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func lowerRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}
