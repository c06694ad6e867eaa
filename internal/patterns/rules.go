// Package patterns holds the static vendor signature registries and the
// matching engine run against raw page content.
package patterns

import "github.com/chatlens/chatlens/internal/detect"

// Vendor labels with special handling.
const (
	// VendorCustom marks rules that indicate an unbranded chat widget.
	// Matches are surfaced to callers as VendorGeneric.
	VendorCustom = "Custom Chat"
	// VendorGeneric is the label reported when evidence exists but no
	// branded vendor can be named.
	VendorGeneric = "Website Chatbot"
)

// ruleSpec declares one signature before compilation. Exactly one of expr
// (regex, compiled case-insensitive) or literal (lowercase containment
// check) is set.
type ruleSpec struct {
	vendor     string
	kind       detect.PatternKind
	expr       string
	literal    string
	confidence float64
}

// Baseline confidence per pattern kind; individual rules override.
const (
	confScript    = 0.9
	confSelector  = 0.7
	confWebsocket = 0.5
	confCustom    = 0.35
)

var scriptRules = []ruleSpec{
	{vendor: "Intercom", kind: detect.KindScriptSignature, expr: `widget\.intercom\.io`, confidence: confScript},
	{vendor: "Intercom", kind: detect.KindScriptSignature, expr: `js\.intercomcdn\.com`, confidence: confScript},
	{vendor: "Intercom", kind: detect.KindScriptSignature, expr: `window\.Intercom\s*[=(]`, confidence: confScript},
	{vendor: "Intercom", kind: detect.KindScriptSignature, literal: "intercom-frame", confidence: confScript},
	{vendor: "Drift", kind: detect.KindScriptSignature, expr: `js\.driftt\.com`, confidence: confScript},
	{vendor: "Drift", kind: detect.KindScriptSignature, expr: `drift\.com/embed`, confidence: confScript},
	{vendor: "Drift", kind: detect.KindScriptSignature, literal: "drift-frame-controller", confidence: confScript},
	{vendor: "Zendesk Chat", kind: detect.KindScriptSignature, expr: `static\.zdassets\.com`, confidence: confScript},
	{vendor: "Zendesk Chat", kind: detect.KindScriptSignature, expr: `v2\.zopim\.com`, confidence: confScript},
	{vendor: "Tawk.to", kind: detect.KindScriptSignature, expr: `embed\.tawk\.to`, confidence: confScript},
	{vendor: "Tawk.to", kind: detect.KindScriptSignature, expr: `Tawk_API`, confidence: confScript},
	{vendor: "LiveChat", kind: detect.KindScriptSignature, expr: `cdn\.livechatinc\.com`, confidence: confScript},
	{vendor: "LiveChat", kind: detect.KindScriptSignature, expr: `window\.__lc\b`, confidence: confScript},
	{vendor: "HubSpot Chat", kind: detect.KindScriptSignature, expr: `js\.hs-scripts\.com`, confidence: confScript},
	{vendor: "HubSpot Chat", kind: detect.KindScriptSignature, expr: `js\.usemessages\.com`, confidence: confScript},
	{vendor: "Crisp", kind: detect.KindScriptSignature, expr: `client\.crisp\.chat`, confidence: confScript},
	{vendor: "Crisp", kind: detect.KindScriptSignature, expr: `\$crisp`, confidence: 0.8},
	{vendor: "Olark", kind: detect.KindScriptSignature, expr: `static\.olark\.com`, confidence: confScript},
	{vendor: "Tidio", kind: detect.KindScriptSignature, expr: `code\.tidio\.co`, confidence: confScript},
	{vendor: "Freshchat", kind: detect.KindScriptSignature, expr: `wchat\.freshchat\.com`, confidence: confScript},
	{vendor: "Freshchat", kind: detect.KindScriptSignature, expr: `fw-cdn\.com`, confidence: 0.8},
	{vendor: "LivePerson", kind: detect.KindScriptSignature, expr: `lptag\.liveperson\.net`, confidence: confScript},
	{vendor: "Smartsupp", kind: detect.KindScriptSignature, expr: `smartsuppchat\.com/loader\.js`, confidence: confScript},
	{vendor: "Gorgias", kind: detect.KindScriptSignature, expr: `config\.gorgias\.chat`, confidence: confScript},
	{vendor: "Pure Chat", kind: detect.KindScriptSignature, expr: `app\.purechat\.com`, confidence: confScript},
	{vendor: "Chaport", kind: detect.KindScriptSignature, expr: `app\.chaport\.com`, confidence: confScript},
	{vendor: "Userlike", kind: detect.KindScriptSignature, expr: `userlike-cdn-widgets`, confidence: confScript},
	{vendor: VendorCustom, kind: detect.KindScriptSignature, literal: "chat-widget.js", confidence: confCustom},
	{vendor: VendorCustom, kind: detect.KindScriptSignature, literal: "chatbot-container", confidence: confCustom},
	{vendor: VendorCustom, kind: detect.KindScriptSignature, expr: `livechat[-_.]?loader`, confidence: confCustom},
}

var selectorRules = []ruleSpec{
	{vendor: "Intercom", kind: detect.KindDomSelector, literal: "#intercom-container", confidence: confSelector},
	{vendor: "Intercom", kind: detect.KindDomSelector, literal: ".intercom-lightweight-app", confidence: confSelector},
	{vendor: "Drift", kind: detect.KindDomSelector, literal: "#drift-widget", confidence: confSelector},
	{vendor: "Drift", kind: detect.KindDomSelector, literal: ".drift-open-chat", confidence: confSelector},
	{vendor: "Zendesk Chat", kind: detect.KindDomSelector, literal: "#webwidget", confidence: confSelector},
	{vendor: "Tawk.to", kind: detect.KindDomSelector, literal: "#tawkchat-container", confidence: confSelector},
	{vendor: "LiveChat", kind: detect.KindDomSelector, literal: "#chat-widget-container", confidence: confSelector},
	{vendor: "HubSpot Chat", kind: detect.KindDomSelector, literal: "#hubspot-messages-iframe-container", confidence: confSelector},
	{vendor: "Crisp", kind: detect.KindDomSelector, literal: ".crisp-client", confidence: confSelector},
	{vendor: "Olark", kind: detect.KindDomSelector, literal: ".olark-launch-button", confidence: confSelector},
	{vendor: "Tidio", kind: detect.KindDomSelector, literal: "#tidio-chat", confidence: confSelector},
	{vendor: "Smartsupp", kind: detect.KindDomSelector, literal: "#smartsupp-widget-container", confidence: confSelector},
	{vendor: VendorCustom, kind: detect.KindDomSelector, literal: "#chat-widget", confidence: confCustom},
	{vendor: VendorCustom, kind: detect.KindDomSelector, literal: ".chat-launcher", confidence: confCustom},
	{vendor: VendorCustom, kind: detect.KindDomSelector, literal: ".livechat-button", confidence: confCustom},
}

var websocketRules = []ruleSpec{
	{vendor: "Intercom", kind: detect.KindWebsocketURL, expr: `nexus-websocket.*\.intercom\.io`, confidence: confWebsocket},
	{vendor: "Drift", kind: detect.KindWebsocketURL, expr: `ws.*\.driftt\.com`, confidence: confWebsocket},
	{vendor: "Crisp", kind: detect.KindWebsocketURL, expr: `client\.relay\.crisp\.chat`, confidence: confWebsocket},
	{vendor: "Smartsupp", kind: detect.KindWebsocketURL, expr: `websocket\.smartsupp\.com`, confidence: confWebsocket},
	{vendor: "LivePerson", kind: detect.KindWebsocketURL, expr: `[a-z0-9.-]+\.liveperson\.net`, confidence: confWebsocket},
	{vendor: "LiveChat", kind: detect.KindWebsocketURL, expr: `[a-z0-9.-]+\.livechatinc\.com`, confidence: confWebsocket},
}

var platformRules = []ruleSpec{
	{vendor: "WordPress", kind: detect.KindPlatformFingerprint, expr: `wp-content/|wp-includes/`, confidence: confScript},
	{vendor: "Shopify", kind: detect.KindPlatformFingerprint, expr: `cdn\.shopify\.com`, confidence: confScript},
	{vendor: "Wix", kind: detect.KindPlatformFingerprint, expr: `static\.parastorage\.com`, confidence: confScript},
	{vendor: "Squarespace", kind: detect.KindPlatformFingerprint, expr: `static1\.squarespace\.com`, confidence: confScript},
	{vendor: "Webflow", kind: detect.KindPlatformFingerprint, expr: `assets\.website-files\.com`, confidence: confScript},
	{vendor: "GoDaddy Website Builder", kind: detect.KindPlatformFingerprint, expr: `img1\.wsimg\.com`, confidence: confScript},
	{vendor: "Weebly", kind: detect.KindPlatformFingerprint, expr: `cdn2\.editmysite\.com`, confidence: confScript},
}

// websocketKeywords gate websocket-URL evidence: a ws:// literal only
// counts when it also carries one of these fragments, cutting false
// positives from unrelated realtime traffic.
var websocketKeywords = []string{"chat", "messenger", "support", "widget", "engage"}
