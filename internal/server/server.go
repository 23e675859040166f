// Package server exposes the timetable over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"timetable/internal/model"
	"timetable/internal/query"
)

const msgDateNotFound = "Дата не найдена"

// Querier is the interface for the read operations served by the API.
type Querier interface {
	ListDates() query.DateList
	ScheduleForDate(ctx context.Context, urlDate string) ([]model.LessonEntry, model.Status)
	ScheduleForGroup(ctx context.Context, urlDate, group string) query.GroupSchedule
	ScheduleForGroupAllDates(group string) []model.LessonEntry
	SplitScheduleForGroup(ctx context.Context, urlDate, group string) query.Split
	GroupOrder() []string
	BellSchedule(ctx context.Context) model.BellSchedule
}

// Trigger is the interface for requesting an immediate background refresh.
type Trigger interface {
	Trigger() bool
}

// Server serves the read API.
type Server struct {
	q       Querier
	trigger Trigger
	log     *slog.Logger
	router  chi.Router
}

// New creates a Server. Browsers from origins may call the API cross-site.
func New(q Querier, trigger Trigger, origins []string, log *slog.Logger) *Server {
	s := &Server{q: q, trigger: trigger, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/dates", s.handleDates)
		r.Get("/schedule/{date}", s.handleSchedule)
		r.Route("/schedule/group/{group}", func(r chi.Router) {
			r.Get("/", s.handleGroupAllDates)
			r.Get("/{date}", s.handleGroupSchedule)
			r.Get("/{date}/split", s.handleGroupSplit)
		})
		r.Get("/bells", s.handleBells)
		r.Get("/groups", s.handleGroups)
		r.Get("/test", s.handleTest)
		r.Post("/refresh", s.handleRefresh)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// param returns the URL-decoded path parameter name.
func param(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.log.Error("marshal response", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.log.Debug("write response", "error", err)
	}
}

func (s *Server) notFound(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusNotFound, errorResponse{Success: false, Error: msgDateNotFound})
}
