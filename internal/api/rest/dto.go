package rest

import (
	"github.com/jmoreiras/rockwave/internal/app/clock"
	"github.com/jmoreiras/rockwave/internal/domain/track"
)

// trackDTO is the wire representation of a track.
type trackDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Duration  int64  `json:"duration"` // seconds
	SourceURL string `json:"source_url"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// stateResponse is the wire representation of the broadcast state. OnAir
// false is the explicit "no signal" variant: an empty catalog is a valid
// state, not an error.
type stateResponse struct {
	OnAir         bool       `json:"on_air"`
	CurrentTrack  *trackDTO  `json:"current_track"`
	Position      float64    `json:"position"`   // seconds within the current track
	StartedAt     int64      `json:"started_at"` // unix seconds of the current airing start
	PlaylistCount int        `json:"playlist_count"`
	JustPlayed    *trackDTO  `json:"just_played"`
	UpNext        []trackDTO `json:"up_next"`
}

// streamResponse carries a playable URL and the authoritative position.
type streamResponse struct {
	AudioURL string  `json:"audio_url"`
	Position float64 `json:"position"`
}

// addTrackRequest is the catalog mutation payload.
type addTrackRequest struct {
	SourceURL string `json:"source_url"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
}

// shareResponse is a displayable share card.
type shareResponse struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"image,omitempty"`
	Track       trackDTO `json:"track"`
}

func toTrackDTO(t track.Track) trackDTO {
	return trackDTO{
		ID:        t.ID,
		Title:     t.Title,
		Artist:    t.Artist,
		Duration:  int64(t.Duration.Seconds()),
		SourceURL: t.SourceURL,
		Thumbnail: t.Thumbnail,
	}
}

func toStateResponse(st clock.State, playlistCount int) stateResponse {
	cur := toTrackDTO(st.Current)
	resp := stateResponse{
		OnAir:         true,
		CurrentTrack:  &cur,
		Position:      st.Position.Seconds(),
		StartedAt:     st.StartedAt.Unix(),
		PlaylistCount: playlistCount,
		UpNext:        make([]trackDTO, 0, len(st.UpNext)),
	}
	for _, t := range st.UpNext {
		resp.UpNext = append(resp.UpNext, toTrackDTO(t))
	}
	if st.JustPlayed != nil {
		jp := toTrackDTO(*st.JustPlayed)
		resp.JustPlayed = &jp
	}
	return resp
}

func noSignalResponse() stateResponse {
	return stateResponse{UpNext: []trackDTO{}}
}
