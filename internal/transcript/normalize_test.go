package transcript

import (
	"testing"

	"github.com/wiredbrain/axiom/internal/transcript/phonetic"
)

func TestDomainRules(t *testing.T) {
	n := NewNormalizer(nil, nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"university mishearing", "tell me about jute", "tell me about JUIT"},
		{"spelled out acronym", "what does j u i t stand for", "what does JUIT stand for"},
		{"jetson split", "do you have a jet son board", "do you have a Jetson board"},
		{"orin nano", "the jetsen oran nano", "the Jetson Orin Nano"},
		{"raspberry pie", "a raspberry pie 5", "a Raspberry Pi 5"},
		{"quadruped name", "show me the unitree go to robot", "show me the Unitree Go2 robot"},
		{"depth camera", "does the real sense camera work", "does the RealSense camera work"},
		{"ros two", "is ros two installed", "is ROS2 installed"},
		{"lab name", "welcome to the robotics lab", "welcome to the Drobotics Lab"},
		{"untouched", "how fast can it move", "how fast can it move"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := n.Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestVocabularyVariants(t *testing.T) {
	vocab := map[string]VocabularyEntry{
		"rplidar": {
			Canonical: "RPLIDAR A1",
			Variants:  []string{"r p lidar a one", "rp lidar", "a1"},
		},
	}
	n := NewNormalizer(vocab, nil)

	got := n.Normalize("is the rp lidar available")
	if got != "is the RPLIDAR A1 available" {
		t.Errorf("variant substitution: got %q", got)
	}

	// Variants under 4 characters must not be substituted.
	got = n.Normalize("the a1 chip")
	if got != "the a1 chip" {
		t.Errorf("short variant must be skipped: got %q", got)
	}
}

func TestPhoneticPass(t *testing.T) {
	vocab := map[string]VocabularyEntry{
		"gazebo": {Canonical: "Gazebo"},
	}
	n := NewNormalizer(vocab, phonetic.New())

	got := n.Normalize("start the gazeebo simulator")
	if got != "start the Gazebo simulator" {
		t.Errorf("phonetic correction: got %q", got)
	}

	// Unrelated words stay untouched.
	got = n.Normalize("open the door")
	if got != "open the door" {
		t.Errorf("unrelated words changed: got %q", got)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	n := NewNormalizer(nil, phonetic.New())
	if got := n.Normalize(""); got != "" {
		t.Errorf("empty input: got %q", got)
	}
}
