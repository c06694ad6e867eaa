package patterns

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatlens/chatlens/internal/detect"
)

func vendors(matches []ScoredMatch) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Vendor)
	}
	return out
}

func TestMatch_ScriptSignature(t *testing.T) {
	t.Parallel()

	lib := NewLibrary()
	content := `<html><head><script src="https://widget.intercom.io/widget/abc"></script></head></html>`

	matches := lib.Match(content)
	require.NotEmpty(t, matches)
	require.Equal(t, "Intercom", matches[0].Vendor)
	require.Equal(t, detect.KindScriptSignature, matches[0].Kind)
	require.Contains(t, matches[0].MatchedText, "widget.intercom.io")
	require.InDelta(t, 0.9, matches[0].Confidence, 0.001)
}

func TestMatch_RepeatedSignatureReportsVendorOnce(t *testing.T) {
	t.Parallel()

	lib := NewLibrary()
	snippet := `<script src="https://embed.tawk.to/abc/default"></script>`
	content := strings.Repeat(snippet, 5)

	matches := lib.Match(content)
	require.Equal(t, []string{"Tawk.to"}, vendors(matches))
}

func TestMatch_MultipleVendorsUnioned(t *testing.T) {
	t.Parallel()

	lib := NewLibrary()
	content := `
		<script src="https://js.driftt.com/include/now/x.js"></script>
		<div id="intercom-container"></div>
	`

	matches := lib.Match(content)
	require.Equal(t, []string{"Drift", "Intercom"}, vendors(matches))
	require.Equal(t, detect.KindScriptSignature, matches[0].Kind)
	require.Equal(t, detect.KindDomSelector, matches[1].Kind)
}

func TestMatch_DomSelectorIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	lib := NewLibrary()
	content := `<div id="Tidio-Chat"><iframe></iframe></div>`

	matches := lib.Match(content)
	require.Equal(t, []string{"Tidio"}, vendors(matches))
	require.Equal(t, detect.KindDomSelector, matches[0].Kind)
}

func TestMatch_WebsocketRequiresKeyword(t *testing.T) {
	t.Parallel()

	lib := NewLibrary()

	// A realtime socket with no chat-related keyword must not count.
	none := lib.Match(`var s = new WebSocket("wss://quotes.example.com/stream");`)
	require.Empty(t, none)

	matches := lib.Match(`var s = new WebSocket("wss://client.relay.crisp.chat/w/session");`)
	require.Equal(t, []string{"Crisp"}, vendors(matches))
	require.Equal(t, detect.KindWebsocketURL, matches[0].Kind)
}

func TestMatch_UnbrandedWebsocketBecomesGenericLabel(t *testing.T) {
	t.Parallel()

	lib := NewLibrary()
	matches := lib.Match(`connect("wss://realtime.example.com/chat-gateway/v1")`)

	require.Equal(t, []string{VendorGeneric}, vendors(matches))
	require.Equal(t, detect.KindWebsocketURL, matches[0].Kind)
	require.InDelta(t, confCustom, matches[0].Confidence, 0.001)
}

func TestMatch_CustomChatScriptRenamed(t *testing.T) {
	t.Parallel()

	lib := NewLibrary()
	matches := lib.Match(`<script src="/assets/chat-widget.js"></script>`)

	require.Equal(t, []string{VendorGeneric}, vendors(matches))
}

func TestMatch_NoEvidence(t *testing.T) {
	t.Parallel()

	lib := NewLibrary()
	require.Empty(t, lib.Match(`<html><body><h1>Plain brochure site</h1></body></html>`))
}

func TestMatchPlatforms(t *testing.T) {
	t.Parallel()

	lib := NewLibrary()
	content := `
		<link href="/wp-content/themes/shop/style.css" rel="stylesheet">
		<script src="https://cdn.shopify.com/s/files/1/theme.js"></script>
	`

	require.Equal(t, []string{"WordPress", "Shopify"}, lib.MatchPlatforms(content))
	// Platform fingerprints never produce chatbot evidence.
	require.Empty(t, lib.Match(content))
}
