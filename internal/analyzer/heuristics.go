package analyzer

import (
	"strings"

	"go.uber.org/zap"

	"github.com/chatlens/chatlens/internal/detect"
	"github.com/chatlens/chatlens/internal/patterns"
)

// LikelyLabel is the solution name reported by keyword-only verdicts.
const LikelyLabel = "Likely " + patterns.VendorGeneric

// keywordTerms trigger the secondary pass when found in a URL or page
// title. Cheap and noisy, which is why the tertiary gate only runs this
// pass on batches with zero primary signal.
var keywordTerms = []string{
	"chat", "support", "help", "contact", "message", "livechat", "live-chat",
}

// FallbackVerdict is a low-confidence verdict from a heuristic pass.
// Never verified; always "likely".
type FallbackVerdict struct {
	Solution   string
	Confidence float64
	Evidence   string
}

// VerticalRule is a pluggable industry-specific heuristic consulted by the
// keyword pass. Rules are registered at construction and run in order.
type VerticalRule struct {
	Name   string
	Detect func(url, title string) (FallbackVerdict, bool)
}

// KeywordPass is the secondary classifier: keyword containment over URL
// and title, plus any registered vertical rules.
type KeywordPass struct {
	terms []string
	rules []VerticalRule
}

// NewKeywordPass builds the pass with the given vertical rules registered.
func NewKeywordPass(rules ...VerticalRule) *KeywordPass {
	return &KeywordPass{terms: keywordTerms, rules: rules}
}

// Detect returns a verdict when the URL or title suggests a chat surface.
func (p *KeywordPass) Detect(url, title string) (FallbackVerdict, bool) {
	loweredURL := strings.ToLower(url)
	loweredTitle := strings.ToLower(title)
	for _, term := range p.terms {
		if strings.Contains(loweredURL, term) || strings.Contains(loweredTitle, term) {
			return FallbackVerdict{
				Solution:   LikelyLabel,
				Confidence: 0.3,
				Evidence:   term,
			}, true
		}
	}
	for _, rule := range p.rules {
		if verdict, ok := rule.Detect(url, title); ok {
			return verdict, true
		}
	}
	return FallbackVerdict{}, false
}

// DentalRule is the built-in vertical example: dental and medical
// specialist practices overwhelmingly run appointment chat widgets, so a
// practice-type keyword paired with a booking keyword is treated as weak
// evidence.
func DentalRule() VerticalRule {
	practice := []string{"dental", "dentist", "orthodont", "medical", "clinic", "dermatolog"}
	booking := []string{"appointment", "booking", "book online", "schedule"}
	return VerticalRule{
		Name: "dental-medical",
		Detect: func(url, title string) (FallbackVerdict, bool) {
			combined := strings.ToLower(url + " " + title)
			if !containsAny(combined, practice) || !containsAny(combined, booking) {
				return FallbackVerdict{}, false
			}
			return FallbackVerdict{
				Solution:   LikelyLabel,
				Confidence: 0.25,
				Evidence:   "dental-medical",
			}, true
		},
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// FallbackReport records chatbot counts around a tertiary application.
type FallbackReport struct {
	Before int
	After  int
	Ran    bool
}

// ApplyFallback is the tertiary step: it runs the secondary pass over a
// result set only when the primary pass found no chatbots anywhere in the
// batch, upgrading non-error negatives in place to "likely" verdicts.
// Results that already errored or already carry a verdict are untouched.
func ApplyFallback(results []detect.Result, pass *KeywordPass, logger *zap.Logger) FallbackReport {
	if logger == nil {
		logger = zap.NewNop()
	}
	report := FallbackReport{Before: countChatbots(results)}
	report.After = report.Before
	if pass == nil || report.Before > 0 {
		logger.Debug("secondary pass skipped, primary signal present",
			zap.Int("chatbots", report.Before))
		return report
	}
	report.Ran = true
	for i := range results {
		r := &results[i]
		if r.Status != detect.StatusCompleted || r.HasChatbot {
			continue
		}
		verdict, ok := pass.Detect(r.URL, r.Title)
		if !ok {
			continue
		}
		r.HasChatbot = true
		r.ChatSolutions = []string{verdict.Solution}
		r.Confidence = &verdict.Confidence
		r.Verification = detect.VerificationLikely
		logger.Debug("secondary pass verdict",
			zap.String("url", r.URL),
			zap.String("evidence", verdict.Evidence),
		)
	}
	report.After = countChatbots(results)
	logger.Info("secondary detection pass applied",
		zap.Int("chatbots_before", report.Before),
		zap.Int("chatbots_after", report.After),
	)
	return report
}

func countChatbots(results []detect.Result) int {
	n := 0
	for _, r := range results {
		if r.HasChatbot {
			n++
		}
	}
	return n
}
