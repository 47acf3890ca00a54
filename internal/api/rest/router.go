package rest

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	zlog "github.com/rs/zerolog/log"

	"github.com/jmoreiras/rockwave/internal/app/station"
)

// NewRouter builds the echo router for the station API.
func NewRouter(st *station.Station) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zlog.Debug().Msgf("http: %s %s -> %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))

	h := NewHandler(st)
	api := e.Group("/api")

	api.GET("/health", h.Health)

	radio := api.Group("/radio")
	radio.GET("/state", h.State)
	radio.GET("/stream", h.Stream)
	radio.GET("/playlist", h.Playlist)
	radio.POST("/playlist", h.AddTrack)

	favorites := api.Group("/favorites")
	favorites.POST("/save", h.SaveFavorite)
	favorites.GET("/get", h.GetFavorite)
	favorites.GET("/stream", h.FavoriteStream)

	api.GET("/share/current", h.Share)

	return e
}
