package itinerary

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	digitsOnlyRe = regexp.MustCompile(`^\d+$`)
	durationRe   = regexp.MustCompile(`(?i)^[\d.]+\s*(分钟|min|h|小时|hours?)$`)
	timeLikeRe   = regexp.MustCompile(`^[\d:：\s-]+$`)
)

// fillerNames are exact-match tokens the model drops into name cells
// when it has nothing to say.
var fillerNames = map[string]struct{}{
	"未找到":  {},
	"暂无":   {},
	"待定":   {},
	"无":    {},
	"推荐":   {},
	"建议时长": {},
	"费用":   {},
}

// placeSuffixes are single characters that make an otherwise too-short
// name plausibly a real place (pagoda, temple, mountain).
var placeSuffixes = []string{"塔", "寺", "山"}

// IsValidName reports whether s can serve as a location name. Durations,
// bare numbers, placeholder dashes and known filler tokens are all
// rejected; rejection drops the row silently rather than erroring.
func IsValidName(s string) bool {
	if s == "" || s == "-" {
		return false
	}
	if digitsOnlyRe.MatchString(s) {
		return false
	}
	if durationRe.MatchString(s) {
		return false
	}
	if _, filler := fillerNames[s]; filler {
		return false
	}
	return true
}

// IsTimeLike reports whether s is a literal clock time ("10:30",
// "09:00-11:00") misplaced into a name cell. Only applied to the name
// field.
func IsTimeLike(s string) bool {
	return timeLikeRe.MatchString(s) && strings.Contains(s, ":")
}

// UsableForGeocode is the stricter screen applied before spending a
// geocoding request on a string: everything IsValidName rejects, plus
// single characters unless they carry a place-suffix character.
func UsableForGeocode(s string) bool {
	if !IsValidName(s) {
		return false
	}
	if utf8.RuneCountInString(s) < 2 {
		for _, suffix := range placeSuffixes {
			if strings.Contains(s, suffix) {
				return true
			}
		}
		return false
	}
	return true
}
