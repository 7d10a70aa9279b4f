package server

import (
	"net/http"
	"time"

	"github.com/stefanseeger/ecotracker-ir/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type snapshotResponse struct {
	Values     map[string]float64 `json:"values"`
	FetchedAt  *time.Time         `json:"fetched_at,omitempty"`
	LastPollAt *time.Time         `json:"last_poll_at,omitempty"`
	LastPollOK bool               `json:"last_poll_ok"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/snapshot", s.SnapshotHandler)
	e.POST("/poll", s.ForcePollHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

// SnapshotHandler serves the poller's cached snapshot. It never triggers
// a device request.
func (s *Server) SnapshotHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetSnapshotRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "snapshot: FAIL")
	}
	response, ok := res.(domain.GetSnapshotResponse)
	if !ok {
		return c.String(http.StatusServiceUnavailable, "snapshot: FAIL")
	}
	body := snapshotResponse{
		LastPollOK: response.LastPollOK,
	}
	if !response.LastPollAt.IsZero() {
		t := response.LastPollAt
		body.LastPollAt = &t
	}
	if response.Snapshot != nil {
		body.Values = response.Snapshot.Values()
		t := response.Snapshot.FetchedAt()
		body.FetchedAt = &t
	}
	return c.JSON(http.StatusOK, body)
}

func (s *Server) ForcePollHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ForcePollRequest{}, 30*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "poll: FAIL")
	}
	response, ok := res.(domain.ForcePollResponse)
	if !ok {
		return c.String(http.StatusServiceUnavailable, "poll: FAIL")
	}
	body := snapshotResponse{
		LastPollOK: response.LastPollOK,
	}
	if response.Snapshot != nil {
		body.Values = response.Snapshot.Values()
		t := response.Snapshot.FetchedAt()
		body.FetchedAt = &t
	}
	return c.JSON(http.StatusOK, body)
}
