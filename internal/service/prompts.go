package service

import (
	"fmt"
)

// pageContextLimit bounds how much page text is embedded, in characters.
const pageContextLimit = 10000

const assistantPreamble = "You are a helpful, concise AI assistant living in a Chrome extension."

var lengthInstructions = map[ResponseLength]string{
	LengthShort:  "Provide a concise and direct answer. Focus only on the most important information.",
	LengthMedium: "Provide a balanced explanation. Include necessary details but avoid excessive elaboration.",
	LengthLong:   "Provide a comprehensive and detailed response. Cover all relevant aspects and provide in-depth analysis where appropriate.",
}

// Quick actions offered next to the input box.
const (
	QuickActionSummarize = "summarize"
	QuickActionExplain   = "explain"
	QuickActionKeyPoints = "key_points"
)

var quickActionPrompts = map[string]string{
	QuickActionSummarize: "Summarize this page.",
	QuickActionExplain:   "Explain the main concepts on this page.",
	QuickActionKeyPoints: "List the key points from this page.",
}

// lengthInstruction falls back to medium for unknown lengths.
func lengthInstruction(l ResponseLength) string {
	if s, ok := lengthInstructions[l]; ok {
		return s
	}
	return lengthInstructions[LengthMedium]
}

// contextPrompt embeds page text, cut to pageContextLimit characters.
func contextPrompt(l ResponseLength, page string) string {
	if runes := []rune(page); len(runes) > pageContextLimit {
		page = string(runes[:pageContextLimit])
	}
	return fmt.Sprintf("%s\nAnswer questions based on the provided page context. If the context is irrelevant to the question, use your general knowledge.\n%s\n\nContext:\n%s\n(End of Context)",
		assistantPreamble, lengthInstruction(l), page)
}

// guidancePrompt carries only the response-length guidance.
func guidancePrompt(l ResponseLength) string {
	return assistantPreamble + " " + lengthInstruction(l)
}

func errorContent(err error) string {
	return "Error: " + err.Error()
}
