package transcript

import (
	"regexp"
	"strings"
)

// The query-side cleaner is deliberately minimal: better a wrong word than a
// changed meaning. Content repair belongs to the normalizer.
var noiseTagPattern = regexp.MustCompile(`\[.*?\]`)

var markdownPatterns = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`\*\*(.+?)\*\*`), "$1"},
	{regexp.MustCompile(`\*(.+?)\*`), "$1"},
	{regexp.MustCompile("`(.+?)`"), "$1"},
	{regexp.MustCompile(`#{1,6}\s+`), ""},
}

// unitRules expand abbreviated units so the speech synthesizer reads them
// naturally ("5m" becomes "5 meters", "10gb" becomes "10 GB").
var unitRules = []rule{
	mustRule(`\b(\d+)\s*m\b`, "$1 meters"),
	mustRule(`\b(\d+)\s*km\b`, "$1 kilometers"),
	mustRule(`\b(\d+)\s*cm\b`, "$1 centimeters"),
	mustRule(`\b(\d+)\s*mm\b`, "$1 millimeters"),
	mustRule(`\b(\d+)\s*gb\b`, "$1 GB"),
	mustRule(`\b(\d+)\s*mb\b`, "$1 MB"),
	mustRule(`\b(\d+)\s*kb\b`, "$1 KB"),
	mustRule(`\b(\d+)\s*hz\b`, "$1 Hz"),
	mustRule(`\b(\d+)\s*mhz\b`, "$1 MHz"),
	mustRule(`\b(\d+)\s*ghz\b`, "$1 GHz"),
	mustRule(`\b(\d+)\s*fps\b`, "$1 FPS"),
	mustRule(`\b(\d+)\s*tops\b`, "$1 TOPS"),
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// CleanQuery strips noise tags ("[Music]", "[Applause]") from a transcript.
// It changes nothing else: no word content, no contractions, no names.
func CleanQuery(text string) string {
	if text == "" {
		return text
	}
	text = noiseTagPattern.ReplaceAllString(text, "")
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(text), " ")
}

// CorrectResponse prepares generated text for speech synthesis: markdown is
// removed, unit abbreviations are expanded, whitespace is collapsed. Word
// content is never altered, so the pass is idempotent.
func CorrectResponse(text string) string {
	if text == "" {
		return text
	}
	for _, p := range markdownPatterns {
		text = p.pattern.ReplaceAllString(text, p.replace)
	}
	for _, r := range unitRules {
		text = r.pattern.ReplaceAllString(text, r.replace)
	}
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(text), " ")
}
