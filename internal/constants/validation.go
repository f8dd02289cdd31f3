package constants

import "regexp"

// languagePattern matches the language prefixes used by public holiday calendars,
// e.g. "en", "ja", "pt_br" or "zh-TW".
var languagePattern = regexp.MustCompile(`^[A-Za-z]{2,3}([_-][A-Za-z]{2,4})?$`)

// IsValidLanguage checks if a given language code can be used as a calendar language prefix
func IsValidLanguage(lang string) bool {
	return languagePattern.MatchString(lang)
}
