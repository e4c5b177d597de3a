package service

import (
	"fmt"
	"strings"

	"github.com/kontrakwise/backend/internal/model"
)

const chatPromptTemplate = `You are Kontrakwise AI. Use the provided context to answer the question.

REASONING INSTRUCTIONS:
1. If the user asks about something NOT mentioned in the context, explicitly state: "The contract is silent on this matter." in their language
2. If the user asks for a calculation (like a notice period), find the relevant clause and apply it to their situation.
3. If the user asks for legal advice, clarify that you are an AI assistant to help analyze the document, not a lawyer.

STRICT RULES:
1. Base your answer ONLY on the context.
2. If the user asks a question that cannot be answered using the provided CONTEXT (e.g., general knowledge, politics, or other documents), you must politely decline to answer.
3. Say: "I'm sorry, but I can only answer questions based on the provided legal document. I don't have information regarding [User's Topic]."
4. For every source used, identify the EXACT sentence or short paragraph that contains the evidence. If consecutive sentences are relevant, group them into a single citation.
5. Citations are OPTIONAL - only include them if the question requires specific evidence from the document. If the question is general or doesn't need specific citations, you can omit the EVIDENCE section entirely.

RESPONSE FORMAT:
If citations are needed:

ANSWER: [Your professional legal answer here]
---
EVIDENCE:
- Page [Number]: "[Exact sentence from text]"
- Page [Number]: "[Exact sentence from text]"

If no citations are needed:

ANSWER: [Your professional legal answer here]

CONTEXT:
%s

QUESTION:
%s`

func buildChatPrompt(contextBlock, question string) string {
	return fmt.Sprintf(chatPromptTemplate, contextBlock, question)
}

func buildContextBlock(matches []model.VectorMatch) string {
	parts := make([]string, 0, len(matches))
	for _, match := range matches {
		parts = append(parts, fmt.Sprintf("[Source: Page %d]\n%s", match.Page, match.Text))
	}
	return strings.Join(parts, "\n\n")
}

// parseAnswer splits the model response into answer text and citations.
// This is a deliberately lenient text-pattern parser, not a grammar: a
// missing delimiter yields the whole text as the answer, malformed evidence
// lines are skipped.
func parseAnswer(raw string) *model.ChatAnswer {
	parts := strings.SplitN(raw, "---", 2)
	answer := strings.TrimSpace(parts[0])
	answer = strings.TrimSpace(strings.TrimPrefix(answer, "ANSWER:"))

	citations := []model.Citation{}
	if len(parts) == 2 {
		evidence := strings.TrimSpace(parts[1])
		evidence = strings.TrimSpace(strings.TrimPrefix(evidence, "EVIDENCE:"))
		for _, line := range strings.Split(evidence, "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "- Page") {
				continue
			}
			citation, ok := parseCitationLine(line)
			if !ok {
				continue
			}
			citations = append(citations, citation)
		}
	}
	return &model.ChatAnswer{Answer: answer, Citations: citations}
}

func parseCitationLine(line string) (model.Citation, bool) {
	rest := strings.TrimPrefix(line, "- Page")
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return model.Citation{}, false
	}
	page := strings.TrimSpace(rest[:colon])
	if page == "" {
		return model.Citation{}, false
	}
	start := strings.Index(line, `"`)
	end := strings.LastIndex(line, `"`)
	if start < 0 || end <= start {
		return model.Citation{}, false
	}
	return model.Citation{Page: page, Text: line[start+1 : end]}, true
}
