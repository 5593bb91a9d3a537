package transcript

import "testing"

func TestIsHallucination(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"punctuation only", "...", true},
		{"video signoff", "Thanks for watching", true},
		{"subtitle credit", "Subtitles by the Amara.org community", true},
		{"noise description", "[Music Playing]", true},
		{"url", "visit www.example.com", true},
		{"thank you mid sentence", "well thank you very much", true},
		{"repeated word", "lidar lidar lidar lidar", true},
		{"short non-word", "so", true},
		{"single short word", "hi", true},
		{"allowlisted yes", "yes", false},
		{"allowlisted stop", "stop", false},
		{"allowlisted help", "help", false},
		{"real question", "what equipment do you have", false},
		{"real equipment query", "tell me about the jetson orin nano", false},
		{"leading filler kept sentence", "um what is the drobotics lab", false},
		{"filler then hallucination", "um thanks for watching", true},
		{"three repeated words pass", "go go go", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsHallucination(tc.text); got != tc.want {
				t.Errorf("IsHallucination(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestSingleLongWordSkipsPhraseFilter(t *testing.T) {
	// A lone long token is accepted by the length filter before the phrase
	// list runs; "subscribe" alone therefore survives.
	if IsHallucination("subscribe") {
		t.Error("single long token should pass the length filter early")
	}
}

func TestIsFillerOnly(t *testing.T) {
	for _, text := range []string{"um", "Okay", "yeah.", "hmm", "  oh  "} {
		if !IsFillerOnly(text) {
			t.Errorf("IsFillerOnly(%q) = false, want true", text)
		}
	}
	for _, text := range []string{"okay show me", "yes", "", "jetson"} {
		if IsFillerOnly(text) {
			t.Errorf("IsFillerOnly(%q) = true, want false", text)
		}
	}
}
