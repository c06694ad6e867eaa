package patterns

import (
	"regexp"
	"strings"

	"github.com/chatlens/chatlens/internal/detect"
)

// ScoredMatch pairs evidence with the confidence its rule carries.
type ScoredMatch struct {
	detect.Match
	Confidence float64
}

// rule is a compiled signature. Literal rules use a lowercase containment
// fast path instead of regex evaluation, which dominates for selector
// fragments. Selector rules additionally match the id/class attribute form
// of the fragment, since raw HTML carries `id="x"` rather than `#x`.
type rule struct {
	vendor     string
	kind       detect.PatternKind
	re         *regexp.Regexp
	attrRe     *regexp.Regexp
	literal    string
	confidence float64
}

func (r rule) match(content, lowered string) (string, bool) {
	if r.literal != "" {
		if strings.Contains(lowered, r.literal) {
			return r.literal, true
		}
		if r.attrRe != nil {
			if loc := r.attrRe.FindString(content); loc != "" {
				return loc, true
			}
		}
		return "", false
	}
	if loc := r.re.FindString(content); loc != "" {
		return loc, true
	}
	return "", false
}

// Library evaluates the four compiled rule sets against page content.
// It is immutable after construction and safe for concurrent use.
type Library struct {
	scripts    []rule
	selectors  []rule
	websockets []rule
	platforms  []rule

	wsLiteral *regexp.Regexp
}

// NewLibrary compiles the built-in rule registries. Rules are static; a bad
// expression is a programming error, so compilation panics via MustCompile.
func NewLibrary() *Library {
	return &Library{
		scripts:    compile(scriptRules),
		selectors:  compile(selectorRules),
		websockets: compile(websocketRules),
		platforms:  compile(platformRules),
		wsLiteral:  regexp.MustCompile(`wss?://[^\s"'<>\\]+`),
	}
}

func compile(specs []ruleSpec) []rule {
	out := make([]rule, 0, len(specs))
	for _, spec := range specs {
		r := rule{
			vendor:     spec.vendor,
			kind:       spec.kind,
			literal:    strings.ToLower(spec.literal),
			confidence: spec.confidence,
		}
		if spec.expr != "" {
			r.re = regexp.MustCompile(`(?i)` + spec.expr)
		}
		if spec.kind == detect.KindDomSelector && len(r.literal) > 1 {
			r.attrRe = selectorAttrRegexp(r.literal)
		}
		out = append(out, r)
	}
	return out
}

// selectorAttrRegexp maps a selector fragment to the attribute form seen in
// markup: "#x" also matches id="x", ".x" also matches x as a class token.
func selectorAttrRegexp(selector string) *regexp.Regexp {
	name := regexp.QuoteMeta(selector[1:])
	switch selector[0] {
	case '#':
		return regexp.MustCompile(`(?i)id\s*=\s*["']` + name + `["']`)
	case '.':
		return regexp.MustCompile(`(?i)class\s*=\s*["'][^"']*\b` + name + `\b`)
	default:
		return nil
	}
}

// Match runs the three chatbot-evidence rule sets against the content and
// returns the union of everything that fired, first-detected order, one
// entry per (vendor, kind). Platform fingerprints are excluded; they never
// decide chatbot presence.
func (l *Library) Match(content string) []ScoredMatch {
	lowered := strings.ToLower(content)
	var out []ScoredMatch
	seen := make(map[string]struct{})
	out = appendMatches(out, seen, l.scripts, content, lowered)
	out = appendMatches(out, seen, l.selectors, content, lowered)
	out = append(out, l.matchWebsockets(content, lowered, seen)...)
	for i := range out {
		out[i].Vendor = normalizeVendor(out[i].Vendor)
	}
	return out
}

func appendMatches(out []ScoredMatch, seen map[string]struct{}, rules []rule, content, lowered string) []ScoredMatch {
	for _, r := range rules {
		text, ok := r.match(content, lowered)
		if !ok {
			continue
		}
		key := r.vendor + "|" + string(r.kind)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ScoredMatch{
			Match:      detect.Match{Vendor: r.vendor, Kind: r.kind, MatchedText: text},
			Confidence: r.confidence,
		})
	}
	return out
}

// matchWebsockets extracts every ws:// and wss:// literal from the content
// and classifies only the ones carrying a chat-related keyword. Keyworded
// sockets with no vendor rule still count as unbranded evidence.
func (l *Library) matchWebsockets(content, lowered string, seen map[string]struct{}) []ScoredMatch {
	literals := l.wsLiteral.FindAllString(content, -1)
	var out []ScoredMatch
	for _, literal := range literals {
		lowerLit := strings.ToLower(literal)
		if !containsAny(lowerLit, websocketKeywords) {
			continue
		}
		vendor := VendorCustom
		confidence := confCustom
		for _, r := range l.websockets {
			if r.re.MatchString(literal) {
				vendor = r.vendor
				confidence = r.confidence
				break
			}
		}
		key := vendor + "|" + string(detect.KindWebsocketURL)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ScoredMatch{
			Match:      detect.Match{Vendor: vendor, Kind: detect.KindWebsocketURL, MatchedText: literal},
			Confidence: confidence,
		})
	}
	return out
}

// MatchPlatforms returns the CMS/platform names fingerprinted in the
// content. Annotation only.
func (l *Library) MatchPlatforms(content string) []string {
	lowered := strings.ToLower(content)
	var out []string
	seen := make(map[string]struct{})
	for _, r := range l.platforms {
		if _, ok := r.match(content, lowered); !ok {
			continue
		}
		if _, dup := seen[r.vendor]; dup {
			continue
		}
		seen[r.vendor] = struct{}{}
		out = append(out, r.vendor)
	}
	return out
}

// normalizeVendor renames unbranded evidence to the generic label callers
// see; "Custom Chat" patterns are not branded-vendor evidence.
func normalizeVendor(vendor string) string {
	if vendor == VendorCustom {
		return VendorGeneric
	}
	return vendor
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
