// Package server exposes a small read-only JSON API next to the bot, used
// for dashboards and health probes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"codewars-tracker/internal/config"
	"codewars-tracker/internal/domain"
	"codewars-tracker/internal/middleware"
	"codewars-tracker/internal/service"
)

type Server struct {
	users  *service.UserService
	groups *service.GroupService
	logger zerolog.Logger
	srv    *http.Server
}

func New(cfg *config.Config, users *service.UserService, groups *service.GroupService, logger zerolog.Logger) *Server {
	s := &Server{users: users, groups: groups, logger: logger}
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: s.Handler(),
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /v1/users/{telegram_id}/stats", s.handleUserStats)
	mux.HandleFunc("GET /v1/groups/{name}", s.handleGroup)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.RequestID(s.logger)(middleware.Recover(s.logger)(c.Handler(mux)))
}

func (s *Server) Start() {
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("server starting")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg("server failed")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userStatsResponse struct {
	Username       string             `json:"username"`
	Rank           string             `json:"rank"`
	Honor          int                `json:"honor"`
	TotalCompleted int                `json:"total_completed"`
	Report         activityReportJSON `json:"report"`
	History        []historyEntryJSON `json:"history"`
}

type activityReportJSON struct {
	TotalDays       int     `json:"total_days"`
	ActiveDays      int     `json:"active_days"`
	CompletionRate  float64 `json:"completion_rate"`
	AvgPerActiveDay float64 `json:"avg_per_active_day"`
	MaxDayDate      string  `json:"max_day_date,omitempty"`
	MaxDayKatas     int     `json:"max_day_katas"`
	TotalKatas      int     `json:"total_katas"`
	TotalHonor      int     `json:"total_honor"`
}

type historyEntryJSON struct {
	Date           string `json:"date"`
	CompletedKatas int    `json:"completed_katas"`
	Honor          int    `json:"honor"`
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	telegramID, err := strconv.ParseInt(r.PathValue("telegram_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "telegram_id must be an integer")
		return
	}

	stats, err := s.users.MyStats(r.Context(), telegramID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := userStatsResponse{
		Username:       stats.Profile.Username,
		Rank:           stats.Profile.RankName,
		Honor:          stats.Profile.Honor,
		TotalCompleted: stats.Profile.TotalCompleted,
		Report: activityReportJSON{
			TotalDays:       stats.Report.TotalDays,
			ActiveDays:      stats.Report.ActiveDays,
			CompletionRate:  stats.Report.CompletionRate,
			AvgPerActiveDay: stats.Report.AvgPerActiveDay,
			MaxDayDate:      stats.Report.MaxDayDate,
			MaxDayKatas:     stats.Report.MaxDayKatas,
			TotalKatas:      stats.Report.TotalKatas,
			TotalHonor:      stats.Report.TotalHonor,
		},
		History: make([]historyEntryJSON, 0, len(stats.History)),
	}
	for _, entry := range stats.History {
		resp.History = append(resp.History, historyEntryJSON{
			Date:           entry.Date,
			CompletedKatas: entry.CompletedKatas,
			Honor:          entry.Honor,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type groupResponse struct {
	Name    string            `json:"name"`
	Members []groupMemberJSON `json:"members"`
}

type groupMemberJSON struct {
	Username       string `json:"username"`
	CompletedTotal int    `json:"completed_total"`
	Honor          int    `json:"honor"`
}

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	overview, err := s.groups.Overview(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := groupResponse{Name: overview.GroupName, Members: make([]groupMemberJSON, 0, len(overview.Members))}
	for _, m := range overview.Members {
		resp.Members = append(resp.Members, groupMemberJSON{
			Username:       m.Username,
			CompletedTotal: m.CompletedTotal,
			Honor:          m.Honor,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, domain.ErrNotRegistered):
		writeError(w, http.StatusNotFound, "user not registered")
	case errors.Is(err, domain.ErrGroupNotFound):
		writeError(w, http.StatusNotFound, "group not found")
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		writeError(w, http.StatusBadGateway, "codewars unavailable")
	default:
		s.logger.Error().Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
