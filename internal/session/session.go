package session

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"roastreel/internal/roast"
)

// Stage identifies where a session sits in the upload-to-export lifecycle.
type Stage string

const (
	StageIdle          Stage = "idle"
	StageScriptPending Stage = "script_pending"
	StageScriptReady   Stage = "script_ready"
	StageVideosPending Stage = "videos_pending"
	StageVideosReady   Stage = "videos_ready"
	StageConcatenating Stage = "concatenating"
	StageDone          Stage = "done"
	StageFailed        Stage = "failed"
)

// ParseStage converts user input into a Stage.
func ParseStage(value string) (Stage, error) {
	stage := Stage(strings.ToLower(strings.TrimSpace(value)))
	switch stage {
	case StageIdle, StageScriptPending, StageScriptReady, StageVideosPending,
		StageVideosReady, StageConcatenating, StageDone, StageFailed:
		return stage, nil
	default:
		return "", fmt.Errorf("unknown stage %q", value)
	}
}

// transitions encodes the allowed forward edges of the lifecycle. Reset is
// handled separately because it is legal from every stage.
var transitions = map[Stage][]Stage{
	StageIdle:          {StageScriptPending},
	StageScriptPending: {StageScriptReady, StageFailed},
	StageScriptReady:   {StageVideosPending},
	StageVideosPending: {StageVideosReady, StageFailed},
	StageVideosReady:   {StageConcatenating},
	StageConcatenating: {StageDone, StageVideosReady, StageFailed},
	StageDone:          {},
	StageFailed:        {},
}

// IsTerminal reports whether the stage has no forward edge; only a reset
// moves the session on from here.
func (s Stage) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether moving from one stage to another is legal.
// Returning to idle (a reset) is always allowed.
func CanTransition(from, to Stage) bool {
	if to == StageIdle {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// VideoResult is one generated clip tied to its scene.
type VideoResult struct {
	SceneIndex int       `json:"scene_index"`
	MediaID    string    `json:"media_id"`
	Selected   bool      `json:"selected"`
	CreatedAt  time.Time `json:"created_at"`
}

// Session is the full state of one resume-to-video run.
type Session struct {
	ID        string         `json:"id"`
	Stage     Stage          `json:"stage"`
	Profile   *roast.Profile `json:"profile,omitempty"`
	Videos    []VideoResult  `json:"videos,omitempty"`
	FinalID   string         `json:"final_media_id,omitempty"`
	LastError string         `json:"last_error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Clone returns a deep copy safe to hand across goroutine boundaries.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	copied := *s
	if s.Profile != nil {
		profile := *s.Profile
		profile.Superpowers = append([]string(nil), s.Profile.Superpowers...)
		profile.Scenes = append([]roast.Scene(nil), s.Profile.Scenes...)
		copied.Profile = &profile
	}
	copied.Videos = append([]VideoResult(nil), s.Videos...)
	return &copied
}

// SelectedIDs returns the media ids of every selected clip in ascending scene
// order, which is the order they are stitched in.
func (s *Session) SelectedIDs() []string {
	selected := make([]VideoResult, 0, len(s.Videos))
	for _, video := range s.Videos {
		if video.Selected {
			selected = append(selected, video)
		}
	}
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].SceneIndex < selected[j].SceneIndex
	})
	ids := make([]string, 0, len(selected))
	for _, video := range selected {
		ids = append(ids, video.MediaID)
	}
	return ids
}

// Video returns the result for the given scene, if generation produced one.
func (s *Session) Video(sceneIndex int) (VideoResult, bool) {
	for _, video := range s.Videos {
		if video.SceneIndex == sceneIndex {
			return video, true
		}
	}
	return VideoResult{}, false
}
