package retrieval

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadProjects reads a project-idea database. Both a bare array and an
// object with a "projects" array are accepted.
func LoadProjects(path string) ([]*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("retrieval: read projects: %w", err)
	}

	var projects []*Project
	if err := json.Unmarshal(data, &projects); err == nil {
		return projects, nil
	}

	var wrapper struct {
		Projects []*Project `json:"projects"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("retrieval: parse projects %s: %w", path, err)
	}
	return wrapper.Projects, nil
}

// DefaultAuthorities is the built-in people table. The lab's leadership
// changes rarely enough that shipping it in the binary beats requiring one
// more data file on every install; a people file on disk overrides it.
func DefaultAuthorities() []*Authority {
	return []*Authority{
		{
			Name:      "Dr. Aman Sharma",
			Role:      "AI/Software Lead (CSE)",
			Expertise: "Artificial intelligence, software systems",
		},
		{
			Name:      "Dr. Vikas Baghel",
			Role:      "Sensory/Hardware Lead (ECE)",
			Expertise: "Sensors, embedded hardware",
		},
		{
			Name:      "Prof. (Dr.) Shruti Jain",
			Role:      "Dean (Academic & Research)",
			Expertise: "Academic and research leadership",
		},
		{
			Name:      "Prof. (Dr.) Rajendra Kumar Sharma",
			Role:      "Vice Chancellor of JUIT",
			Expertise: "Machine learning, pattern recognition, speech processing",
		},
	}
}

// LoadAuthorities reads a people file, or falls back to DefaultAuthorities
// when path is empty or the file does not exist.
func LoadAuthorities(path string) ([]*Authority, error) {
	if path == "" {
		return DefaultAuthorities(), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultAuthorities(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieval: read authorities: %w", err)
	}

	var authorities []*Authority
	if err := json.Unmarshal(data, &authorities); err != nil {
		return nil, fmt.Errorf("retrieval: parse authorities %s: %w", path, err)
	}
	return authorities, nil
}
