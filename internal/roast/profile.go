package roast

import (
	"fmt"
	"strings"
)

// Profile is the structured roast script derived from one resume. It is
// immutable once produced by the synthesizer.
type Profile struct {
	Name        string   `json:"name"`
	Industry    string   `json:"industry"`
	Superpowers []string `json:"superpowers"`
	Scenes      []Scene  `json:"scenes"`
}

// Scene is one persona-driven monologue unit, paired 1:1 with one generated
// video clip. Prompt must be self-contained: the video job receives nothing
// else.
type Scene struct {
	Persona          string `json:"archetype"`
	PersonaSituation string `json:"archetype_description"`
	Dialogue         string `json:"script"`
	StageDirection   string `json:"stage_direction"`
	Prompt           string `json:"veo_prompt"`
}

// Validate checks profile shape against the configured scene cardinality.
func (p *Profile) Validate(sceneCount int) error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name is empty")
	}
	if len(p.Scenes) != sceneCount {
		return fmt.Errorf("expected %d scenes, got %d", sceneCount, len(p.Scenes))
	}
	for i, scene := range p.Scenes {
		if strings.TrimSpace(scene.Prompt) == "" {
			return fmt.Errorf("scene %d has an empty generation prompt", i)
		}
		if strings.TrimSpace(scene.Dialogue) == "" {
			return fmt.Errorf("scene %d has empty dialogue", i)
		}
	}
	return nil
}
