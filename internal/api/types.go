package api

import (
	"errors"
	"net/http"
	"time"

	"roastreel/internal/services"
	"roastreel/internal/session"
)

// SceneView is one scene of the roast script as exposed over the API.
type SceneView struct {
	Index            int    `json:"index"`
	Archetype        string `json:"archetype"`
	ArchetypeDetails string `json:"archetype_description"`
	Script           string `json:"script"`
	StageDirection   string `json:"stage_direction"`
	VeoPrompt        string `json:"veo_prompt"`
}

// ProfileView is the synthesized roast profile.
type ProfileView struct {
	Name        string      `json:"name"`
	Industry    string      `json:"industry"`
	Superpowers []string    `json:"superpowers"`
	Scenes      []SceneView `json:"scenes"`
}

// VideoView is one generated clip and its selection state. Reference is the
// playable path served by the daemon.
type VideoView struct {
	SceneIndex int       `json:"scene_index"`
	MediaID    string    `json:"media_id"`
	Reference  string    `json:"reference"`
	Selected   bool      `json:"selected"`
	CreatedAt  time.Time `json:"created_at"`
}

// SessionView is the API projection of a session.
type SessionView struct {
	ID             string       `json:"id"`
	Stage          string       `json:"stage"`
	Profile        *ProfileView `json:"profile,omitempty"`
	Videos         []VideoView  `json:"videos,omitempty"`
	FinalMediaID   string       `json:"final_media_id,omitempty"`
	FinalReference string       `json:"final_reference,omitempty"`
	LastError      string       `json:"last_error,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// SessionResponse wraps a single session.
type SessionResponse struct {
	Session SessionView `json:"session"`
}

// SessionListResponse wraps the session registry listing.
type SessionListResponse struct {
	Sessions []SessionView `json:"sessions"`
}

// SelectRequest toggles one scene's clip in or out of the final cut.
type SelectRequest struct {
	SceneIndex int `json:"scene_index"`
}

// SessionEventView is one recorded lifecycle transition.
type SessionEventView struct {
	SessionID string    `json:"session_id"`
	Stage     string    `json:"stage"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionHistoryResponse wraps a session's recorded transitions, oldest first.
type SessionHistoryResponse struct {
	Events []SessionEventView `json:"events"`
}

// NotifyTestResponse reports the outcome of a notification test.
type NotifyTestResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// DaemonStatus reports daemon liveness over the API.
type DaemonStatus struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	StoreDir     string `json:"store_dir"`
	LockFilePath string `json:"lock_file_path"`
	Sessions     int    `json:"sessions"`
}

// VideoPath returns the daemon route that streams a stored clip.
func VideoPath(mediaID string) string {
	return "/api/video/" + mediaID
}

// FromSession converts a session snapshot into its API projection.
func FromSession(sess *session.Session) SessionView {
	view := SessionView{
		ID:           sess.ID,
		Stage:        string(sess.Stage),
		FinalMediaID: sess.FinalID,
		LastError:    sess.LastError,
		CreatedAt:    sess.CreatedAt,
		UpdatedAt:    sess.UpdatedAt,
	}
	if sess.FinalID != "" {
		view.FinalReference = VideoPath(sess.FinalID)
	}
	if sess.Profile != nil {
		profile := ProfileView{
			Name:        sess.Profile.Name,
			Industry:    sess.Profile.Industry,
			Superpowers: sess.Profile.Superpowers,
		}
		for index, scene := range sess.Profile.Scenes {
			profile.Scenes = append(profile.Scenes, SceneView{
				Index:            index,
				Archetype:        scene.Persona,
				ArchetypeDetails: scene.PersonaSituation,
				Script:           scene.Dialogue,
				StageDirection:   scene.StageDirection,
				VeoPrompt:        scene.Prompt,
			})
		}
		view.Profile = &profile
	}
	for _, video := range sess.Videos {
		view.Videos = append(view.Videos, VideoView{
			SceneIndex: video.SceneIndex,
			MediaID:    video.MediaID,
			Reference:  VideoPath(video.MediaID),
			Selected:   video.Selected,
			CreatedAt:  video.CreatedAt,
		})
	}
	return view
}

// StatusFromError maps service error markers onto HTTP status codes.
func StatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrNoSelection):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusInternalServerError
	case errors.Is(err, services.ErrGenerationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrSynthesisFailed),
		errors.Is(err, services.ErrJobSubmissionFailed),
		errors.Is(err, services.ErrJobExecutionFailed),
		errors.Is(err, services.ErrDownloadFailed),
		errors.Is(err, services.ErrConcatenationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
