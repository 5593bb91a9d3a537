// Package transcript normalizes raw speech-to-text output before it reaches
// intent classification, and cleans generated responses before they reach
// speech synthesis.
//
// The stages are deliberately conservative: the hallucination filter rejects
// whole transcripts that look like decoder artifacts, the phonetic stage only
// rewrites tokens it can anchor to the lab vocabulary, and the response
// corrector touches formatting, never content.
package transcript

import (
	"regexp"
	"strings"
)

// hallucinationPhrases are exact (lowercased, filler-stripped) transcripts
// that speech-to-text decoders emit on silence or background noise. Most come
// from models trained on captioned video: channel sign-offs, subtitle credits
// and noise descriptions.
var hallucinationPhrases = map[string]struct{}{
	// Video platform sign-offs.
	"thanks for watching": {}, "thank you for watching": {}, "thanks": {},
	"you": {}, "watching": {}, "subscribe": {}, "like and subscribe": {},
	"please subscribe": {}, "subscribing": {}, "please remember to click the": {},
	"don't hesitate to like": {}, "share": {}, "follow": {}, "click the bell": {},
	"post them in the comments": {}, "hit the like button": {},

	// Subtitle and credit artifacts.
	"subtitles by": {}, "subs by": {}, "translated by": {}, "amara.org": {},
	"amara": {}, "subtitles made by the community of amara.org": {},
	"community of amara.org": {}, "copyright": {}, "all rights reserved": {},
	"mbc": {}, "the": {}, "video": {}, "audio": {}, "transcribed by": {},
	"otter.ai": {}, "rev.com": {}, "transcription by": {}, "by bf-watch tv": {},

	// Noise and music descriptions.
	"[silence]": {}, "[music playing]": {}, "[music]": {}, "[laughter]": {},
	"[applause]": {}, "music": {}, "background music": {}, "playing": {},
	"engine": {}, "piano music continues": {}, "noise": {}, "blinking": {},
	"clicking": {}, "beep": {}, "*loud noise*": {}, "*distorted noise*": {},
	"*background noise*": {}, "*static*": {}, "static": {}, "humming": {},
	"distorted": {}, "(door closes)": {}, "(wind blowing)": {}, "(birds chirping)": {},

	// Common short hallucinations.
	"so": {}, "i'm fine": {}, "the end": {}, "to be continued": {},
	"thank you": {}, "okay": {}, "bye": {}, "goodbye": {},
}

var hallucinationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`subtitles? by`),
	regexp.MustCompile(`translat\w+ by`),
	regexp.MustCompile(`thank\s?you`),
	regexp.MustCompile(`copyright`),
	regexp.MustCompile(`all rights`),
	regexp.MustCompile(`www\.`),
	regexp.MustCompile(`http`),
	regexp.MustCompile(`like,? subscribe`),
	regexp.MustCompile(`support the show`),
	regexp.MustCompile(`click the bell`),
	regexp.MustCompile(`amara\.org`),
	regexp.MustCompile(`subtitles?\s+made\s+by`),
	regexp.MustCompile(`^\W*$`),
}

// shortWordAllowlist holds single words that are legitimate complete
// utterances and must survive the length filter.
var shortWordAllowlist = map[string]struct{}{
	"yes": {}, "no": {}, "stop": {}, "wait": {}, "help": {},
}

var fillerStripPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(ah|um|uh|hmm|huh|err|erm|like|you know|basically|actually|really)\s+`),
	regexp.MustCompile(`(?i)\s+(ah|um|uh|hmm|huh|err|erm)\s+`),
	regexp.MustCompile(`(?i)\s+(ah|um|uh|hmm|huh|err|erm)$`),
}

// fillerOnlyWords are utterances that carry no intent on their own. The
// pipeline drops these without a round trip through routing.
var fillerOnlyWords = map[string]struct{}{
	"uh": {}, "um": {}, "ah": {}, "eh": {}, "hmm": {}, "oh": {},
	"ok": {}, "okay": {}, "yeah": {}, "yep": {}, "nope": {}, "mm": {},
}

// IsHallucination reports whether a transcript looks like a speech-to-text
// decoder artifact rather than something the user said. Filters are applied
// in order of cost, each one short-circuiting: filler stripping and length
// checks, exact phrase match, pattern match, then a repeated-word check.
func IsHallucination(text string) bool {
	clean := strings.ToLower(strings.TrimSpace(text))

	// Strip leading/embedded filler so "um thank you" still matches the
	// phrase list, without rejecting a real sentence for one filler word.
	for _, p := range fillerStripPatterns {
		clean = p.ReplaceAllString(clean, " ")
	}
	clean = strings.TrimSpace(clean)

	if len(clean) < 2 {
		return true
	}
	if len(strings.Fields(clean)) < 2 {
		if _, ok := shortWordAllowlist[clean]; !ok {
			return len(clean) < 5
		}
	}

	if _, ok := hallucinationPhrases[clean]; ok {
		return true
	}

	for _, p := range hallucinationPatterns {
		if p.MatchString(clean) {
			return true
		}
	}

	words := strings.Fields(clean)
	if len(words) > 3 {
		same := true
		for _, w := range words[1:] {
			if w != words[0] {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}

	return false
}

// IsFillerOnly reports whether the transcript is a single filler word with no
// routable content.
func IsFillerOnly(text string) bool {
	clean := strings.ToLower(strings.TrimSpace(text))
	clean = strings.Trim(clean, ".,!?")
	_, ok := fillerOnlyWords[clean]
	return ok
}
