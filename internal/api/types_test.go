package api

import (
	"errors"
	"net/http"
	"testing"

	"roastreel/internal/roast"
	"roastreel/internal/services"
	"roastreel/internal/session"
)

func TestFromSessionProjectsProfileAndVideos(t *testing.T) {
	sess := &session.Session{
		ID:    "s1",
		Stage: session.StageVideosReady,
		Profile: &roast.Profile{
			Name:     "Ada Lovelace",
			Industry: "Software",
			Scenes: []roast.Scene{
				{Persona: "Billionaire", Dialogue: "line", Prompt: "prompt"},
			},
		},
		Videos: []session.VideoResult{
			{SceneIndex: 0, MediaID: "m1", Selected: true},
		},
		FinalID: "f1",
	}

	view := FromSession(sess)
	if view.Stage != "videos_ready" {
		t.Fatalf("unexpected stage %q", view.Stage)
	}
	if view.Profile == nil || len(view.Profile.Scenes) != 1 {
		t.Fatalf("profile not projected: %+v", view.Profile)
	}
	if view.Profile.Scenes[0].Archetype != "Billionaire" || view.Profile.Scenes[0].Index != 0 {
		t.Fatalf("unexpected scene view %+v", view.Profile.Scenes[0])
	}
	if len(view.Videos) != 1 || !view.Videos[0].Selected {
		t.Fatalf("videos not projected: %+v", view.Videos)
	}
	if view.Videos[0].Reference != "/api/video/m1" {
		t.Fatalf("unexpected clip reference %q", view.Videos[0].Reference)
	}
	if view.FinalReference != "/api/video/f1" {
		t.Fatalf("unexpected final reference %q", view.FinalReference)
	}
}

func TestStatusFromError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrValidation, http.StatusBadRequest},
		{services.ErrNoSelection, http.StatusBadRequest},
		{services.ErrGenerationTimeout, http.StatusGatewayTimeout},
		{services.ErrSynthesisFailed, http.StatusBadGateway},
		{services.ErrConcatenationFailed, http.StatusBadGateway},
		{errors.New("unclassified"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		wrapped := tc.err
		if wrapped != nil {
			wrapped = services.Wrap(tc.err, "test", "op", "detail", nil)
		}
		if got := StatusFromError(wrapped); got != tc.want {
			t.Errorf("StatusFromError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
