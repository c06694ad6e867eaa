package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chatlens/chatlens/internal/detect"
)

func completedResult(url, title string, hasChatbot bool) detect.Result {
	return detect.Result{
		URL:          url,
		Title:        title,
		Status:       detect.StatusCompleted,
		HasChatbot:   hasChatbot,
		Verification: detect.VerificationUnverified,
	}
}

func TestKeywordPass_URLKeyword(t *testing.T) {
	t.Parallel()

	pass := NewKeywordPass()
	verdict, ok := pass.Detect("https://citychat-support.example.com", "")
	require.True(t, ok)
	require.Equal(t, LikelyLabel, verdict.Solution)
	require.InDelta(t, 0.3, verdict.Confidence, 0.001)
}

func TestKeywordPass_TitleKeyword(t *testing.T) {
	t.Parallel()

	pass := NewKeywordPass()
	verdict, ok := pass.Detect("https://example.com", "Acme Help Center")
	require.True(t, ok)
	require.Equal(t, "help", verdict.Evidence)
}

func TestKeywordPass_NoOverlap(t *testing.T) {
	t.Parallel()

	pass := NewKeywordPass()
	_, ok := pass.Detect("https://example.com/plain", "Example Co")
	require.False(t, ok)
}

func TestKeywordPass_DentalRuleNeedsBothKeywordGroups(t *testing.T) {
	t.Parallel()

	pass := NewKeywordPass(DentalRule())

	_, ok := pass.Detect("https://smiles.example.com/dental", "Dental Practice")
	require.False(t, ok, "practice keyword alone must not fire")

	verdict, ok := pass.Detect("https://smiles.example.com/dental", "Dental Practice - Book Online")
	require.True(t, ok)
	require.InDelta(t, 0.25, verdict.Confidence, 0.001)
	require.Equal(t, "dental-medical", verdict.Evidence)
}

func TestKeywordPass_RegisteredVerticalRule(t *testing.T) {
	t.Parallel()

	called := false
	rule := VerticalRule{
		Name: "synthetic",
		Detect: func(url, _ string) (FallbackVerdict, bool) {
			called = true
			return FallbackVerdict{Solution: LikelyLabel, Confidence: 0.25, Evidence: "synthetic"}, true
		},
	}
	pass := NewKeywordPass(rule)

	verdict, ok := pass.Detect("https://example.com/plain", "Example Co")
	require.True(t, ok)
	require.True(t, called)
	require.Equal(t, "synthetic", verdict.Evidence)
}

func TestApplyFallback_SkipsWhenPrimarySignalExists(t *testing.T) {
	t.Parallel()

	results := []detect.Result{
		completedResult("https://a.example.com", "", true),
		completedResult("https://help.example.com", "", false),
	}
	report := ApplyFallback(results, NewKeywordPass(), zap.NewNop())

	require.False(t, report.Ran)
	require.Equal(t, 1, report.Before)
	require.Equal(t, 1, report.After)
	require.False(t, results[1].HasChatbot)
}

func TestApplyFallback_UpgradesNegativesToLikely(t *testing.T) {
	t.Parallel()

	results := []detect.Result{
		completedResult("https://citychat-support.example.com", "", false),
		completedResult("https://example.com/plain", "Example Co", false),
		{URL: "https://down.example.com", Status: detect.StatusFailed, ErrorMessage: "analysis timed out"},
	}
	report := ApplyFallback(results, NewKeywordPass(), zap.NewNop())

	require.True(t, report.Ran)
	require.Equal(t, 0, report.Before)
	require.Equal(t, 1, report.After)

	upgraded := results[0]
	require.True(t, upgraded.HasChatbot)
	require.Equal(t, []string{LikelyLabel}, upgraded.ChatSolutions)
	require.NotNil(t, upgraded.Confidence)
	require.InDelta(t, 0.3, *upgraded.Confidence, 0.001)
	require.Equal(t, detect.VerificationLikely, upgraded.Verification)

	require.False(t, results[1].HasChatbot, "no keyword overlap stays negative")
	require.False(t, results[2].HasChatbot, "failed results are untouched")
}
