package router

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/wiredbrain/axiom/pkg/provider/intent"
)

// Template is one extracted question/answer pair from the training data.
type Template struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

var quickGreetings = []string{
	"Hello! I can help with robotics equipment, projects, and lab information.",
	"Hi! Ask me about Drobotics Lab equipment and projects.",
	"Hey! What would you like to know about our robotics lab?",
}

var quickAcknowledgments = []string{"Got it.", "Understood.", "Okay.", "Sure."}

var labInfoKeywords = []string{
	"juit", "drobotics", "vice chancellor", "registrar", "dean",
	"chancellor", "authorities", "leadership",
}

// TemplateStore answers common queries from a database of extracted
// question/answer pairs, bypassing the language model entirely. The bypass
// only triggers when the classifier is confident and the query clearly
// matches stored material; everything marginal goes to the model.
type TemplateStore struct {
	byCategory map[string][]Template
}

// LoadTemplates reads the template database. An empty path yields a store
// with only the built-in quick templates.
func LoadTemplates(path string) (*TemplateStore, error) {
	s := &TemplateStore{byCategory: make(map[string][]Template)}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("router: read template db: %w", err)
	}
	if err := json.Unmarshal(data, &s.byCategory); err != nil {
		return nil, fmt.Errorf("router: parse template db %s: %w", path, err)
	}
	return s, nil
}

// ShouldUse reports whether a template answer should bypass generation for
// this classified query. Project ideas never bypass: the project database is
// large and retrieval does better than any canned answer.
func (s *TemplateStore) ShouldUse(intentLabel string, confidence float64, text string) bool {
	textLower := strings.ToLower(text)

	switch intentLabel {
	case intent.IntentGreeting:
		return confidence > 0.65
	case intent.IntentAcknowledgment:
		return confidence > 0.60
	case intent.IntentEquipmentQuery:
		return confidence > 0.75 &&
			s.hasRobustMatch(textLower, []string{"specs", "usage", "compatibility"}, 3)
	case intent.IntentProjectIdea:
		return false
	case intent.IntentLabInfo:
		if confidence <= 0.65 {
			return false
		}
		for _, kw := range labInfoKeywords {
			if strings.Contains(textLower, kw) {
				return true
			}
		}
	}
	return false
}

// hasRobustMatch reports whether any stored question in the given categories
// shares at least minMatch significant words with the query.
func (s *TemplateStore) hasRobustMatch(textLower string, categories []string, minMatch int) bool {
	queryWords := wordSet(textLower)
	for _, category := range categories {
		templates := s.byCategory[category]
		if len(templates) > 100 {
			templates = templates[:100]
		}
		for _, t := range templates {
			overlap := 0
			for w := range wordSet(strings.ToLower(t.Question)) {
				if _, ok := queryWords[w]; ok {
					overlap++
				}
			}
			if overlap >= minMatch {
				return true
			}
		}
	}
	return false
}

// wordSet returns the words of s longer than two characters.
func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		if len(w) > 2 {
			out[w] = struct{}{}
		}
	}
	return out
}

// Response returns the template answer for a query. The boolean is false
// when no stored answer fits, in which case the caller falls back to
// generation.
func (s *TemplateStore) Response(intentLabel, text string) (string, bool) {
	textLower := strings.ToLower(text)

	switch intentLabel {
	case intent.IntentGreeting:
		return quickGreetings[rand.IntN(len(quickGreetings))], true
	case intent.IntentAcknowledgment:
		return quickAcknowledgments[rand.IntN(len(quickAcknowledgments))], true
	case intent.IntentLabInfo:
		if answer, ok := labInfoAnswer(textLower); ok {
			return answer, true
		}
	}

	categories := map[string][]string{
		intent.IntentEquipmentQuery:  {"specs", "usage"},
		intent.IntentProjectIdea:     {"projects"},
		intent.IntentCapabilityCheck: {"compatibility", "integrations"},
	}[intentLabel]

	queryWords := wordSet(textLower)
	for _, category := range categories {
		for _, t := range s.byCategory[category] {
			common := 0
			for w := range wordSet(strings.ToLower(t.Question)) {
				if _, ok := queryWords[w]; ok {
					common++
				}
			}
			if common >= 2 {
				return t.Answer, true
			}
		}
	}
	return "", false
}

func labInfoAnswer(textLower string) (string, bool) {
	switch {
	case strings.Contains(textLower, "drobotics"):
		return "Drobotics Lab (Drone + Robotics) is JUIT's research facility for autonomous systems, robotics, and AI. Focus: Autonomous Navigation, Computer Vision, Embedded AI, Legged Robotics.", true
	case strings.Contains(textLower, "juit") || strings.Contains(textLower, "university"):
		return "JUIT (Jaypee University of Information Technology) is a private university established in 2002, located in Waknaghat, Solan, Himachal Pradesh.", true
	case strings.Contains(textLower, "vice chancellor") || strings.Contains(textLower, "vc"):
		return "Prof. (Dr.) Rajendra Kumar Sharma is the Vice Chancellor. PhD from IIT Roorkee, expertise in Machine Learning and Speech Processing.", true
	case strings.Contains(textLower, "dean"):
		return "Prof. (Dr.) Shruti Jain is Dean (Academics). World's Top 2% Scientist, expert in Image Processing and Bio-inspired Computing.", true
	}
	return "", false
}
