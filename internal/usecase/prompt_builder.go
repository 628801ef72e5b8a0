package usecase

import (
	"strings"

	"brain-orchestrator/internal/domain"
)

const systemPrompt = "You are FS Adviser Agent, an AI-powered financial advisor. " +
	"You provide well-reasoned, concise, and data-backed responses. " +
	"If data is unavailable, indicate so clearly. " +
	"Avoid speculation, and always include a disclaimer.\n"

const disclaimer = "\n\n_Disclaimer: This is an AI-generated response and not personalized financial advice._"

// BuildChatPrompt composes the model-ready message sequence for one turn:
// the fixed system instruction, then a single user message holding the
// enrichment context, the prior history, and the literal question,
// newline-joined in that order. Pure and deterministic; an empty question
// still yields a well-formed sequence, validation is the caller's job.
func BuildChatPrompt(userQuestion string, contextLines, historyLines []string) []domain.PromptMessage {
	parts := make([]string, 0, len(contextLines)+len(historyLines))
	parts = append(parts, contextLines...)
	parts = append(parts, historyLines...)

	body := strings.Join(parts, "\n")
	if body != "" {
		body += "\n\n"
	}
	body += "User Question: " + userQuestion

	return []domain.PromptMessage{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleUser, Content: body},
	}
}

// AppendDisclaimer suffixes the fixed disclaimer onto a finalized
// assistant answer. Runs exactly once per turn, after streaming
// completes, never per chunk.
func AppendDisclaimer(answer string) string {
	return strings.TrimSpace(answer) + disclaimer
}
