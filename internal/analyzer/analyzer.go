// Package analyzer classifies raw page content using the pattern library
// plus keyword fallback passes.
package analyzer

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/chatlens/chatlens/internal/detect"
	"github.com/chatlens/chatlens/internal/patterns"
)

// DefaultConfidenceFloor is the minimum per-match confidence the primary
// pass accepts. Lowered from an earlier 0.15 to favor recall; tune via
// configuration, not here.
const DefaultConfidenceFloor = 0.1

var titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// Analyzer runs the primary pattern pass over one page's raw HTML/JS text.
type Analyzer struct {
	library *patterns.Library
	floor   float64
	logger  *zap.Logger
}

// Analysis is the primary-pass fragment of a Result.
type Analysis struct {
	HasChatbot    bool
	ChatSolutions []string
	Platforms     []string
	Matches       []detect.Match
	Confidence    float64
	Title         string
}

// New constructs an Analyzer. A non-positive floor falls back to the
// default; a nil logger is replaced with a nop.
func New(library *patterns.Library, floor float64, logger *zap.Logger) *Analyzer {
	if floor <= 0 {
		floor = DefaultConfidenceFloor
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{library: library, floor: floor, logger: logger}
}

// Analyze evaluates all pattern kinds against the content. A match counts
// only if its confidence clears the floor. Vendors keep first-detected
// order with duplicates collapsed; evidence that names no branded vendor
// surfaces as the single generic label.
func (a *Analyzer) Analyze(content string) Analysis {
	out := Analysis{
		Platforms: a.library.MatchPlatforms(content),
		Title:     extractTitle(content),
	}

	for _, scored := range a.library.Match(content) {
		if scored.Confidence < a.floor {
			a.logger.Debug("match below confidence floor",
				zap.String("vendor", scored.Vendor),
				zap.Float64("confidence", scored.Confidence),
			)
			continue
		}
		out.Matches = append(out.Matches, scored.Match)
		out.ChatSolutions = appendUnique(out.ChatSolutions, scored.Vendor)
		if scored.Confidence > out.Confidence {
			out.Confidence = scored.Confidence
		}
	}

	out.HasChatbot = len(out.Matches) > 0
	if out.HasChatbot && len(out.ChatSolutions) == 0 {
		out.ChatSolutions = []string{patterns.VendorGeneric}
	}
	return out
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}

func extractTitle(content string) string {
	m := titleRe.FindStringSubmatch(content)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(strings.Join(strings.Fields(m[1]), " "))
}
