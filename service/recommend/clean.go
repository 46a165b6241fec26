package recommend

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// The similarity provider reports track titles the way listeners typed
// them: "Song (2011 Remaster)", "Song feat. Somebody", "Song - Live at
// X". Searching the catalog with that noise attached misses the
// canonical record, so titles are scrubbed before they become queries.

var querySymbols = "1234567890!@#$%^&*()-=_+[]{};\"|;'\\<>?/.,~`"

var guffWords = []string{
	"acoustic", "bonus", "clean", "demo", "deluxe", "dirty", "edit",
	"explicit", "extended", "instrumental", "karaoke", "live", "mix",
	"mono", "official", "original", "radio", "re-edit", "remaster",
	"remastered", "remix", "remixed", "reprise", "rework", "session",
	"single", "stereo", "take", "version", "video",
}

type queryCleaner struct {
	titleExprs []*regexp2.Regexp
	yearExpr   *regexp2.Regexp
}

func newQueryCleaner() *queryCleaner {
	patterns := []string{
		`(?<title>.+?)\s+(?<enclosed>\(.+\)|\[.+\]|\{.+\})$`,
		`(?<title>.+?)\s+?(?<feat>[\[\(]?(?:feat(?:uring)?|ft)\b\.?)\s*?(?<artists>.+)\s*`,
		`(?<title>.+?)(?:\s+?[\u2010\u2012\u2013\u2014~/-])(?![^(]*\))(?<dash>.*)`,
	}

	compiled := make([]*regexp2.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, regexp2.MustCompile(`(?i)`+pattern, 0))
	}

	return &queryCleaner{
		titleExprs: compiled,
		yearExpr:   regexp2.MustCompile(`(20[0-9]{2}|19[0-9]{2})`, 0),
	}
}

// CleanTitle strips release qualifiers off a track title when the
// stripped part looks like guff rather than part of the name.
func (qc *queryCleaner) CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if !balancedBrackets(title) {
		return title
	}

	for _, expr := range qc.titleExprs {
		match, _ := expr.FindStringMatch(title)
		if match == nil {
			continue
		}

		groups := make(map[string]string)
		for _, name := range expr.GetGroupNames() {
			groups[name] = strings.TrimSpace(match.GroupByName(name).String())
		}

		if enclosed := groups["enclosed"]; enclosed != "" && qc.likelyGuff(enclosed) {
			return strings.TrimSpace(groups["title"])
		}
		if groups["feat"] != "" {
			return strings.TrimSpace(groups["title"])
		}
		if dash := groups["dash"]; dash != "" && qc.likelyGuff(dash) {
			return strings.TrimSpace(groups["title"])
		}
	}

	return title
}

// likelyGuff decides whether a stripped segment is release noise. After
// removing known qualifier words and years, a segment that is mostly
// symbols and leftovers rather than letters is noise.
func (qc *queryCleaner) likelyGuff(segment string) bool {
	s := strings.ToLower(segment)
	beforeLen := utf8.RuneCountInString(s)

	for _, guff := range guffWords {
		s = strings.ReplaceAll(s, guff, "")
	}
	s, _ = qc.yearExpr.Replace(s, "", -1, -1)

	guffChars := beforeLen - utf8.RuneCountInString(s)
	letters := 0
	for _, r := range s {
		if strings.ContainsRune(querySymbols, r) {
			guffChars++
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}

	return guffChars > letters
}

// balancedBrackets guards against mangling titles whose brackets do not
// pair up; the patterns above assume they do.
func balancedBrackets(text string) bool {
	pairs := []struct {
		open, close rune
	}{
		{'(', ')'}, {'[', ']'}, {'{', '}'},
	}
	for _, p := range pairs {
		if strings.Count(text, string(p.open)) != strings.Count(text, string(p.close)) {
			return false
		}
	}
	return true
}
