package itinerary

import (
	"regexp"
	"strings"
)

// cityScanLines bounds how much of the document the detector reads; the
// destination is always announced near the top when it is announced at
// all.
const cityScanLines = 15

var (
	// Hidden destination tag injected upstream into the assistant text.
	// Authoritative when present.
	destTagRe = regexp.MustCompile(`<!--\s*(?:DESTINATION|目的地)\s*[:：]\s*(\p{Han}{2,10})\s*-->`)

	// Labeled field, e.g. "目的地：上海".
	destLabelRe = regexp.MustCompile(`(?:目的地|城市)\s*[:：]\s*(\p{Han}{2,10})`)

	// Motion verb followed by a place and a travel-purpose suffix. The
	// suffixed form is tried first with a lazy name so the suffix never
	// gets swallowed into the name.
	actionSuffixRe = regexp.MustCompile(`(?:前往|去|到达|游览)(\p{Han}{2,5}?)(?:旅游|旅行|游玩|出差)`)
	actionBareRe   = regexp.MustCompile(`(?:前往|去|到达|游览)(\p{Han}{2,5})`)

	// Title phrase: place name immediately followed by a trip-duration
	// or itinerary word, e.g. "上海三日游", "成都之旅", "西安攻略".
	titleRe = regexp.MustCompile(`(\p{Han}{2,5}?)(?:[\d一二三四五六七八九十]+日游|[\d一二三四五六七八九十]+天|之旅|行程|攻略|旅游)`)
)

// DetectCity extracts the dominant destination city from raw assistant
// text, scanning only the leading lines. Priority order: explicit hidden
// tag, labeled field, action phrase, title phrase. Returns "" when
// nothing matches. The value is advisory — it biases geocoding queries
// and is never validated against a gazetteer.
func DetectCity(rawText string) string {
	lines := strings.Split(rawText, "\n")
	if len(lines) > cityScanLines {
		lines = lines[:cityScanLines]
	}
	head := strings.Join(lines, "\n")

	if m := destTagRe.FindStringSubmatch(head); m != nil {
		return m[1]
	}
	if m := destLabelRe.FindStringSubmatch(head); m != nil {
		return m[1]
	}
	if m := actionSuffixRe.FindStringSubmatch(head); m != nil {
		return m[1]
	}
	if m := actionBareRe.FindStringSubmatch(head); m != nil {
		return m[1]
	}
	if m := titleRe.FindStringSubmatch(head); m != nil {
		return m[1]
	}
	return ""
}
