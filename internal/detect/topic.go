package detect

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

// ModelInfo identifies a 3D asset to show on the display surface.
type ModelInfo struct {
	Path string `json:"model_path"`
	Name string `json:"model_name"`
}

type topicMapping struct {
	topic    string
	keywords []string
	model    ModelInfo
}

// Topics are checked in declaration order; the first keyword hit wins.
var topicMappings = []topicMapping{
	{
		topic:    "quadruped",
		keywords: []string{"unitree", "go2", "quadruped", "robot dog", "legged robot", "four legged"},
		model:    ModelInfo{Path: "3d v2/robot_dog_unitree_go2.glb", Name: "Unitree Go2 Robot Dog"},
	},
	{
		topic:    "depth_camera",
		keywords: []string{"realsense", "d435i", "depth camera", "intel", "stereo camera", "3d camera"},
		model:    ModelInfo{Path: "3d v2/source/model.glb", Name: "Intel RealSense D435i"},
	},
	{
		topic:    "drone",
		keywords: []string{"drone", "quadcopter", "aerial", "uav", "flying", "flight"},
		model:    ModelInfo{Path: "3d v2/animated-icon-2-optimize.glb", Name: "Quadcopter Drone (Preview)"},
	},
	{
		topic:    "prototyping",
		keywords: []string{"breadboard", "arduino", "prototype", "circuit", "electronics"},
		model:    ModelInfo{Path: "3d v2/source/Board.glb", Name: "Arduino & Breadboard Kit"},
	},
}

// TopicMapper tracks the conversation topic across a session and selects the
// 3D model to display. A model change is emitted only when the detected topic
// differs from the current one, so talking about the same robot for five
// turns does not reload the asset five times.
//
// Safe for concurrent use.
type TopicMapper struct {
	log *slog.Logger

	mu           sync.Mutex
	currentTopic string

	wordPatterns map[string]*regexp.Regexp
}

// NewTopicMapper returns a mapper with no current topic.
func NewTopicMapper(log *slog.Logger) *TopicMapper {
	if log == nil {
		log = slog.Default()
	}
	t := &TopicMapper{
		log:          log,
		wordPatterns: make(map[string]*regexp.Regexp),
	}
	for _, m := range topicMappings {
		for _, kw := range m.keywords {
			if !strings.Contains(kw, " ") {
				t.wordPatterns[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
			}
		}
	}
	return t
}

// detectTopic returns the first topic whose keywords appear in text, or ""
// when nothing matches. Single words need a word boundary, phrases match as
// substrings.
func (t *TopicMapper) detectTopic(text string) string {
	textLower := strings.ToLower(text)
	for _, m := range topicMappings {
		for _, kw := range m.keywords {
			if pattern, single := t.wordPatterns[kw]; single {
				if pattern.MatchString(textLower) {
					return m.topic
				}
			} else if strings.Contains(textLower, kw) {
				return m.topic
			}
		}
	}
	return ""
}

// Process inspects text and returns the model to load when the topic changed.
// The boolean is false when no topic was detected or the topic is unchanged.
func (t *TopicMapper) Process(text string) (ModelInfo, bool) {
	if text == "" {
		return ModelInfo{}, false
	}
	topic := t.detectTopic(text)
	if topic == "" {
		return ModelInfo{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if topic == t.currentTopic {
		return ModelInfo{}, false
	}
	t.currentTopic = topic

	for _, m := range topicMappings {
		if m.topic == topic {
			t.log.Info("3d model change",
				slog.String("topic", topic),
				slog.String("model", m.model.Name))
			return m.model, true
		}
	}
	return ModelInfo{}, false
}

// Reset clears the tracked topic, typically at session end.
func (t *TopicMapper) Reset() {
	t.mu.Lock()
	t.currentTopic = ""
	t.mu.Unlock()
}
