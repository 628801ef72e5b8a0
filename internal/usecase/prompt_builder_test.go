package usecase_test

import (
	"strings"
	"testing"

	"brain-orchestrator/internal/domain"
	"brain-orchestrator/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChatPrompt_Structure(t *testing.T) {
	prompt := usecase.BuildChatPrompt(
		"should I buy?",
		[]string{"TSLA sentiment: bullish"},
		[]string{"earlier question", "earlier answer"},
	)

	require.Len(t, prompt, 2)
	assert.Equal(t, domain.RoleSystem, prompt[0].Role)
	assert.Contains(t, prompt[0].Content, "FS Adviser Agent")

	assert.Equal(t, domain.RoleUser, prompt[1].Role)
	body := prompt[1].Content
	assert.Contains(t, body, "TSLA sentiment: bullish")
	assert.Contains(t, body, "earlier question")
	assert.True(t, strings.HasSuffix(body, "User Question: should I buy?"))

	// Context lines come before history lines, which come before the
	// question.
	ctxIdx := strings.Index(body, "TSLA sentiment")
	histIdx := strings.Index(body, "earlier question")
	qIdx := strings.Index(body, "User Question:")
	assert.Less(t, ctxIdx, histIdx)
	assert.Less(t, histIdx, qIdx)
}

func TestBuildChatPrompt_EmptyInputsStillWellFormed(t *testing.T) {
	prompt := usecase.BuildChatPrompt("", nil, nil)

	require.Len(t, prompt, 2)
	assert.Equal(t, "User Question: ", prompt[1].Content)
}

func TestBuildChatPrompt_Deterministic(t *testing.T) {
	contextLines := []string{"a", "b"}
	historyLines := []string{"c"}

	first := usecase.BuildChatPrompt("q", contextLines, historyLines)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, usecase.BuildChatPrompt("q", contextLines, historyLines))
	}
}

func TestAppendDisclaimer(t *testing.T) {
	out := usecase.AppendDisclaimer("  Buy index funds.  ")

	assert.True(t, strings.HasPrefix(out, "Buy index funds."))
	assert.Contains(t, out, "_Disclaimer:")
	assert.Equal(t, 1, strings.Count(out, "_Disclaimer:"))
}
