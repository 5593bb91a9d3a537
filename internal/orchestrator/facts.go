package orchestrator

import "strings"

// Hardcoded institutional facts. The model occasionally invents names for
// these when left to retrieval alone, and getting the Vice Chancellor wrong
// in a university lobby is not an option, so they are answered before any
// generation happens.
const (
	juitFullName           = "Jaypee University of Information Technology"
	viceChancellor         = "Prof. (Dr.) Rajendra Kumar Sharma"
	viceChancellorExpertise = "Machine Learning, Pattern Recognition, and Speech Processing"
)

var identityPhrases = []string{
	"who are you", "what are you", "your name", "introduce yourself",
	"who created you", "who made you", "who built you",
}

// hardcodedAnswer returns a fixed answer for identity and critical
// institutional questions. The boolean is false when the query is not one of
// them.
func hardcodedAnswer(text string) (string, bool) {
	textLower := strings.ToLower(text)

	for _, phrase := range identityPhrases {
		if strings.Contains(textLower, phrase) {
			return "I'm AXIOM, a breakthrough voice assistant built by Shubham Dev under the Wired Brain Project at JUIT. I help with Drobotics Lab equipment, project ideas, and research guidance. What can I assist you with?", true
		}
	}

	if strings.Contains(textLower, "juit") && containsAny(textLower, "what", "full", "name", "mean", "stand") {
		return "JUIT stands for " + juitFullName + ". It's a premier technical university in Himachal Pradesh. Want to know more about our Drobotics Lab?", true
	}

	if strings.Contains(textLower, "vice chancellor") || strings.Contains(textLower, "vice-chancellor") ||
		(strings.Contains(textLower, "vc") && strings.Contains(textLower, "juit")) {
		return "The Vice Chancellor of JUIT is " + viceChancellor + ", an expert in " + viceChancellorExpertise + ". Anything else about JUIT you'd like to know?", true
	}

	return "", false
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
