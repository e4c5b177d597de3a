package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kontrakwise/backend/internal/ai"
	"github.com/kontrakwise/backend/internal/model"
	appErr "github.com/kontrakwise/backend/internal/pkg/errors"
	"github.com/kontrakwise/backend/internal/repo"
)

const analysisPromptTemplate = `You are a legal document analyst. Read the contract excerpt below and produce a structured assessment.

%s
Respond in EXACTLY this format:

SUMMARY: <2-3 sentence plain-language summary of what this document is and what it obligates the parties to>
RISK: <one of: low, medium, high>
REASONING: <1-2 sentences explaining the risk level, citing the most concerning clause if any>

Document excerpt:
%s`

// maxAnalysisChars bounds how much document text goes into the analysis
// prompt; the opening chunks carry the parties, term and key obligations.
const maxAnalysisChars = 12000

// AnalysisService produces the post-ingestion summary and risk assessment
// for a document. It satisfies the pipeline's Analyzer hook, and its
// failures never fail ingestion.
type AnalysisService struct {
	documents *repo.DocumentRepo
	types     *repo.DocumentTypeRepo
	client    *ai.Client
}

func NewAnalysisService(documents *repo.DocumentRepo, types *repo.DocumentTypeRepo, client *ai.Client) *AnalysisService {
	return &AnalysisService{documents: documents, types: types, client: client}
}

func (s *AnalysisService) Analyze(ctx context.Context, docID, userID string, chunks []model.Chunk) error {
	doc, err := s.documents.Get(ctx, userID, docID)
	if err != nil {
		return err
	}
	var rules []model.RiskRule
	if doc.DocumentTypeID != "" {
		docType, err := s.types.Get(ctx, userID, doc.DocumentTypeID)
		if err == nil {
			rules = docType.RiskRules
		}
	}

	prompt := buildAnalysisPrompt(rules, chunks)
	raw, err := s.client.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	summary, riskLevel, reasoning, err := parseAnalysis(raw)
	if err != nil {
		return err
	}
	return s.documents.UpdateAnalysis(ctx, docID, summary, riskLevel, reasoning)
}

func buildAnalysisPrompt(rules []model.RiskRule, chunks []model.Chunk) string {
	var rulesBlock strings.Builder
	if len(rules) > 0 {
		rulesBlock.WriteString("Check the document against these risk rules and weigh their severity:\n")
		for _, rule := range rules {
			rulesBlock.WriteString(fmt.Sprintf("- [%s] %s", strings.ToUpper(rule.Severity), rule.Title))
			if rule.Description != "" {
				rulesBlock.WriteString(": " + rule.Description)
			}
			rulesBlock.WriteString("\n")
		}
	}

	var text strings.Builder
	for _, chunk := range chunks {
		if text.Len() >= maxAnalysisChars {
			break
		}
		text.WriteString(chunk.Text)
		text.WriteString("\n\n")
	}
	excerpt := text.String()
	if len(excerpt) > maxAnalysisChars {
		// Cut on a rune boundary so the excerpt stays valid UTF-8.
		cut := maxAnalysisChars
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut]
	}
	return fmt.Sprintf(analysisPromptTemplate, rulesBlock.String(), excerpt)
}

func parseAnalysis(raw string) (summary, riskLevel, reasoning string, err error) {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "SUMMARY:"):
			summary = strings.TrimSpace(strings.TrimPrefix(line, "SUMMARY:"))
		case strings.HasPrefix(line, "RISK:"):
			riskLevel = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "RISK:")))
		case strings.HasPrefix(line, "REASONING:"):
			reasoning = strings.TrimSpace(strings.TrimPrefix(line, "REASONING:"))
		}
	}
	if summary == "" || !riskSeverities[riskLevel] {
		return "", "", "", fmt.Errorf("%w: malformed analysis response", appErr.ErrGenerationFailed)
	}
	return summary, riskLevel, reasoning, nil
}
