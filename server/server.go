package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/SusanAcharya/f1-simulation/sim"
	"github.com/SusanAcharya/f1-simulation/store"
)

// Server exposes the race coordinator and history store over HTTP. All
// entity CRUD (users, drivers, cars) belongs to the external backend; this
// surface only covers the live simulation and its archive.
type Server struct {
	coord   *sim.Coordinator
	history *store.Badger
}

func New(coord *sim.Coordinator, history *store.Badger) *Server {
	return &Server{coord: coord, history: history}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/race", s.handleGetRace)
	r.Post("/race/start", s.handleStartRace)
	r.Post("/race/reset", s.handleResetRace)
	r.Get("/history", s.handleListHistory)
	r.Get("/history/{userID}", s.handleUserHistory)
	r.Get("/history/{userID}/stats", s.handleUserStats)
	r.Get("/ws", s.handleWS)

	return r
}

func (s *Server) handleGetRace(w http.ResponseWriter, r *http.Request) {
	state := s.coord.GetRaceState()
	if state == nil {
		writeError(w, http.StatusNotFound, "no race available")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleStartRace(w http.ResponseWriter, r *http.Request) {
	s.coord.StartRace()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "starting"})
}

func (s *Server) handleResetRace(w http.ResponseWriter, r *http.Request) {
	s.coord.ResetRace()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.ListHistory()
	if err != nil {
		log.Err(err).Msg("failed to list race history")
		writeError(w, http.StatusInternalServerError, "failed to list race history")
		return
	}
	if entries == nil {
		entries = []store.RaceHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleUserHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	entries, err := s.history.UserHistory(userID)
	if err != nil {
		log.Err(err).Str("user", userID).Msg("failed to list user race history")
		writeError(w, http.StatusInternalServerError, "failed to list race history")
		return
	}
	if entries == nil {
		entries = []store.RaceHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	stats, err := s.history.UserStats(userID)
	if err != nil {
		log.Err(err).Str("user", userID).Msg("failed to compute user stats")
		writeError(w, http.StatusInternalServerError, "failed to compute user stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
