package internal

import (
	"regexp"
	"strings"
)

// fencePattern matches ```lang\n...``` with an optional language tag. The
// body is matched lazily so adjacent fences stay separate.
var fencePattern = regexp.MustCompile("(?s)```(\\w+)?\\n?(.*?)```")

// ExtractCodeBlocks returns every fenced code block in text, in order.
// Untagged blocks get the language "text".
func ExtractCodeBlocks(text string) []CodeBlock {
	matches := fencePattern.FindAllStringSubmatch(text, -1)
	blocks := make([]CodeBlock, 0, len(matches))
	for _, m := range matches {
		lang := strings.TrimSpace(m[1])
		if lang == "" {
			lang = "text"
		}
		blocks = append(blocks, CodeBlock{
			Language: lang,
			Code:     strings.TrimSpace(m[2]),
		})
	}
	return blocks
}
