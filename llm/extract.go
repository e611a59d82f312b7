package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	enhancedPattern = regexp.MustCompile("(?s)```json\\s*(\\{.*?\"enhanced_content\".*?\\})\\s*```")
	blankRuns       = regexp.MustCompile(`\n{3,}`)
)

// ExtractEnhanced splits a raw assistant reply into conversational text and,
// when present, the pasteable replacement candidate from the fenced
// enhanced-content block. A block that fails to parse is left in place and
// the reply stays conversational.
func ExtractEnhanced(raw string) Reply {
	m := enhancedPattern.FindStringSubmatchIndex(raw)
	if m == nil {
		return Reply{Text: raw}
	}

	var payload struct {
		EnhancedContent string `json:"enhanced_content"`
	}
	if err := json.Unmarshal([]byte(raw[m[2]:m[3]]), &payload); err != nil || payload.EnhancedContent == "" {
		return Reply{Text: raw}
	}

	// Removing the block leaves the blank lines that framed it; collapse
	// them so the chat text reads as one piece.
	cleaned := strings.TrimSpace(blankRuns.ReplaceAllString(raw[:m[0]]+raw[m[1]:], "\n\n"))
	if cleaned == "" {
		cleaned = "Here is the updated text."
	}

	return Reply{
		Text:      cleaned,
		Candidate: payload.EnhancedContent,
		Pasteable: true,
	}
}
