package api

import (
	"context"
	"errors"
)

// ConnectionStatus is the result of CheckConnection
type ConnectionStatus struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// CheckConnection verifies the key with a one-item request and then runs the
// popular chart end to end.
func CheckConnection(ctx context.Context, opts Options) ConnectionStatus {
	c, err := New(ctx, opts)
	if errors.Is(err, ErrMissingAPIKey) {
		return ConnectionStatus{
			Message: "YouTube API Key is not configured",
			Details: map[string]any{"youtubeKey": "Missing"},
		}
	}
	if err != nil {
		return ConnectionStatus{Message: err.Error()}
	}

	if err := c.Probe(ctx); err != nil {
		st := ConnectionStatus{Message: "YouTube API key is invalid or has quota issues"}
		var re *RequestError
		if errors.As(err, &re) {
			st.Details = map[string]any{"status": re.Status, "error": re.Details}
		}
		return st
	}

	tracks, err := c.PopularMusic(ctx)
	if err != nil {
		msg := UserMessage(err)
		if msg == "" {
			msg = "Failed to connect to YouTube API"
		}
		return ConnectionStatus{Message: msg}
	}
	if len(tracks) == 0 {
		return ConnectionStatus{
			Message: "YouTube API returned empty results",
			Details: map[string]any{"videos": tracks},
		}
	}
	return ConnectionStatus{
		Success: true,
		Message: "YouTube API is properly connected",
		Details: map[string]any{
			"tracksReceived": len(tracks),
			"firstTrack":     tracks[0],
		},
	}
}
