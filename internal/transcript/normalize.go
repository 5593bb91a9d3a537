package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/wiredbrain/axiom/internal/transcript/phonetic"
)

// rule is a single domain-specific rewrite applied to the transcript.
type rule struct {
	pattern *regexp.Regexp
	replace string
}

func mustRule(pattern, replace string) rule {
	return rule{pattern: regexp.MustCompile(`(?i)` + pattern), replace: replace}
}

// domainRules fix the recurring ways speech-to-text mangles the lab's proper
// nouns. Order matters: brand rules run before generic ones so "drone
// robotics lab" collapses to the lab name in one pass.
var domainRules = []rule{
	// University and lab brand.
	mustRule(`\bjute\b`, "JUIT"),
	mustRule(`\bjuice\b`, "JUIT"),
	mustRule(`\bj u i t\b`, "JUIT"),
	mustRule(`\bjaypee university\b`, "JUIT"),
	mustRule(`\brobotics lab\b`, "Drobotics Lab"),
	mustRule(`\bdrobotics? lab\b`, "Drobotics Lab"),
	mustRule(`\bdrove robotics\b`, "Drobotics"),
	mustRule(`\bdrone robotics\b`, "Drobotics"),

	// Faculty names.
	mustRule(`\baman sharma\b`, "Dr. Aman Sharma"),
	mustRule(`\bvikas baghel\b`, "Dr. Vikas Baghel"),
	mustRule(`\bshruti jain\b`, "Prof. Shruti Jain"),

	// NVIDIA Jetson family.
	mustRule(`\bjet son\b`, "Jetson"),
	mustRule(`\bjetsen\b`, "Jetson"),
	mustRule(`\bor an\b`, "Orin"),
	mustRule(`\boran\b`, "Orin"),
	mustRule(`\borin nano\b`, "Orin Nano"),
	mustRule(`\bam peer gpu\b`, "Ampere GPU"),

	// Raspberry Pi and Arduino.
	mustRule(`\braspberry pie\b`, "Raspberry Pi"),
	mustRule(`\bpi (\d)\b`, "Pi $1"),
	mustRule(`\bardweeno\b`, "Arduino"),
	mustRule(`\bar do know\b`, "Arduino"),
	mustRule(`\bgiga r1\b`, "GIGA R1"),

	// Robots and sensors.
	mustRule(`\bunitree go to\b`, "Unitree Go2"),
	mustRule(`\bgo too\b`, "Go2"),
	mustRule(`\breal sense\b`, "RealSense"),
	mustRule(`\breal cents\b`, "RealSense"),
	mustRule(`\br p lidar\b`, "RPLIDAR"),
	mustRule(`\brplidar\b`, "RPLIDAR"),
	mustRule(`\blie dar\b`, "Lidar"),

	// Software stack.
	mustRule(`\bros 2\b`, "ROS2"),
	mustRule(`\bros two\b`, "ROS2"),
	mustRule(`\bnav 2\b`, "Nav2"),
	mustRule(`\br viz\b`, "RViz"),
	mustRule(`\bgaze bow\b`, "Gazebo"),
	mustRule(`\bd o f\b`, "DOF"),
	mustRule(`\bt o p s\b`, "TOPS"),

	// Spoken units.
	mustRule(`\bmeters per second\b`, "m/s"),
	mustRule(`\brevolutions per minute\b`, "RPM"),
}

// VocabularyEntry maps recognition variants onto the canonical spelling of a
// lab term.
type VocabularyEntry struct {
	Canonical string   `json:"canonical"`
	Variants  []string `json:"variants"`
}

// Normalizer rewrites speech-to-text output into the lab's canonical
// vocabulary. It applies the fixed domain rules, then vocabulary variant
// substitution, then a phonetic pass that catches misrecognitions the static
// lists miss.
//
// Safe for concurrent use; the Normalizer is read-only after construction.
type Normalizer struct {
	vocab   map[string]VocabularyEntry
	matcher *phonetic.Matcher

	// canonicals is the entity list handed to the phonetic matcher.
	canonicals []string

	// variantRules are precompiled word-boundary substitutions built from the
	// vocabulary. Variants shorter than 4 characters are skipped: fuzzy fixes
	// on short words change meaning more often than they repair it.
	variantRules []rule
}

// NewNormalizer builds a Normalizer from a vocabulary table. The phonetic
// matcher may be nil, which disables the fuzzy pass.
func NewNormalizer(vocab map[string]VocabularyEntry, matcher *phonetic.Matcher) *Normalizer {
	n := &Normalizer{vocab: vocab, matcher: matcher}
	for _, entry := range vocab {
		if entry.Canonical == "" {
			continue
		}
		n.canonicals = append(n.canonicals, entry.Canonical)
		for _, variant := range entry.Variants {
			if len(variant) < 4 {
				continue
			}
			n.variantRules = append(n.variantRules, rule{
				pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(variant) + `\b`),
				replace: entry.Canonical,
			})
		}
	}
	return n
}

// LoadVocabulary reads a vocabulary table from a JSON file keyed by term ID.
func LoadVocabulary(path string) (map[string]VocabularyEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transcript: read vocabulary: %w", err)
	}
	var vocab map[string]VocabularyEntry
	if err := json.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("transcript: parse vocabulary %s: %w", path, err)
	}
	return vocab, nil
}

// Normalize applies the full correction chain to a transcript.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return text
	}

	for _, r := range domainRules {
		text = r.pattern.ReplaceAllString(text, r.replace)
	}
	for _, r := range n.variantRules {
		text = r.pattern.ReplaceAllString(text, r.replace)
	}

	if n.matcher != nil && len(n.canonicals) > 0 {
		text = n.phoneticPass(text)
	}
	return text
}

// phoneticPass rewrites tokens that phonetically align with a canonical term
// but were missed by the static variant lists. Only tokens of 4+ characters
// that are not already canonical are considered.
func (n *Normalizer) phoneticPass(text string) string {
	tokens := strings.Fields(text)
	canonical := make(map[string]struct{}, len(n.canonicals))
	for _, c := range n.canonicals {
		canonical[strings.ToLower(c)] = struct{}{}
	}

	changed := false
	for i, tok := range tokens {
		bare := strings.Trim(tok, ".,!?;:")
		if len(bare) < 4 {
			continue
		}
		if _, ok := canonical[strings.ToLower(bare)]; ok {
			continue
		}
		match, _, ok := n.matcher.Match(bare, n.canonicals)
		if !ok {
			continue
		}
		tokens[i] = strings.Replace(tok, bare, match, 1)
		changed = true
	}
	if !changed {
		return text
	}
	return strings.Join(tokens, " ")
}
