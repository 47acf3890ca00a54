// Package rest provides the HTTP JSON API consumed by the player UI.
package rest

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"

	"github.com/jmoreiras/rockwave/internal/app/clock"
	"github.com/jmoreiras/rockwave/internal/app/favorite"
	"github.com/jmoreiras/rockwave/internal/app/resolver"
	"github.com/jmoreiras/rockwave/internal/app/station"
	"github.com/jmoreiras/rockwave/internal/domain/catalog"
)

// Handler serves the station API.
type Handler struct {
	station *station.Station
}

// NewHandler creates a handler backed by the given station.
func NewHandler(st *station.Station) *Handler {
	return &Handler{station: st}
}

// Health reports liveness.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// State returns the authoritative broadcast state.
func (h *Handler) State(c echo.Context) error {
	st, err := h.station.State()
	if errors.Is(err, clock.ErrNoSignal) {
		return c.JSON(http.StatusOK, noSignalResponse())
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStateResponse(st, len(h.station.Playlist())))
}

// Stream returns the playable URL for the currently airing track.
func (h *Handler) Stream(c echo.Context) error {
	stream, st, err := h.station.Stream(c.Request().Context())
	if errors.Is(err, clock.ErrNoSignal) {
		return echo.NewHTTPError(http.StatusNotFound, "no track playing")
	}
	if errors.Is(err, resolver.ErrResolutionFailed) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "audio temporarily unavailable")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, streamResponse{
		AudioURL: stream.URL,
		Position: st.Position.Seconds(),
	})
}

// Playlist returns the full rotation in order.
func (h *Handler) Playlist(c echo.Context) error {
	tracks := h.station.Playlist()
	out := make([]trackDTO, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, toTrackDTO(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"playlist": out})
}

// AddTrack appends a track to the back of the rotation.
func (h *Handler) AddTrack(c echo.Context) error {
	var req addTrackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	t, err := h.station.AddTrack(c.Request().Context(), station.AddRequest{
		SourceURL: req.SourceURL,
		Title:     req.Title,
		Artist:    req.Artist,
	})
	if errors.Is(err, catalog.ErrInvalidTrack) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid track")
	}
	if errors.Is(err, resolver.ErrResolutionFailed) {
		return echo.NewHTTPError(http.StatusBadGateway, "could not extract audio")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTrackDTO(t))
}

// SaveFavorite snapshots the currently airing track.
func (h *Handler) SaveFavorite(c echo.Context) error {
	t, err := h.station.SaveFavorite()
	if errors.Is(err, clock.ErrNoSignal) {
		return echo.NewHTTPError(http.StatusNotFound, "no track playing")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "track saved as favorite",
		"track":   toTrackDTO(t),
	})
}

// GetFavorite returns the saved favorite, or null when nothing is saved.
func (h *Handler) GetFavorite(c echo.Context) error {
	t, savedAt, err := h.station.Favorite()
	if errors.Is(err, favorite.ErrNoFavorite) {
		return c.JSON(http.StatusOK, echo.Map{"favorite": nil})
	}
	if err != nil {
		return err
	}
	dto := toTrackDTO(t)
	return c.JSON(http.StatusOK, echo.Map{
		"favorite": dto,
		"saved_at": savedAt.Format(time.RFC3339),
	})
}

// FavoriteStream returns a playable URL for the favorite snapshot.
func (h *Handler) FavoriteStream(c echo.Context) error {
	stream, t, err := h.station.FavoriteStream(c.Request().Context())
	if errors.Is(err, favorite.ErrNoFavorite) {
		return echo.NewHTTPError(http.StatusNotFound, "no favorite saved")
	}
	if errors.Is(err, resolver.ErrResolutionFailed) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "audio temporarily unavailable")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"audio_url": stream.URL,
		"track":     toTrackDTO(t),
	})
}

// Share returns a shareable card for the currently airing track.
func (h *Handler) Share(c echo.Context) error {
	card, err := h.station.Share()
	if errors.Is(err, clock.ErrNoSignal) {
		return echo.NewHTTPError(http.StatusNotFound, "no track playing")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shareResponse{
		URL:         card.URL,
		Title:       card.Title,
		Description: card.Description,
		Image:       card.Image,
		Track:       toTrackDTO(card.Track),
	})
}
