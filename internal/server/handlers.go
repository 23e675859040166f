package server

import (
	"net/http"
	"time"

	"timetable/internal/model"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type datesResponse struct {
	Success    bool              `json:"success"`
	Dates      []model.DateEntry `json:"dates"`
	Failed     []string          `json:"failed"`
	LastUpdate *time.Time        `json:"lastUpdate"`
}

type scheduleResponse struct {
	Success  bool                `json:"success"`
	Date     string              `json:"date"`
	Schedule []model.LessonEntry `json:"schedule"`
	Count    int                 `json:"count"`
}

type groupResponse struct {
	Success  bool                `json:"success"`
	Group    string              `json:"group"`
	Date     string              `json:"date"`
	DateURL  string              `json:"dateUrl,omitempty"`
	Schedule []model.LessonEntry `json:"schedule"`
	Count    int                 `json:"count"`
}

type singleSplitResponse struct {
	Success  bool                `json:"success"`
	Group    string              `json:"group"`
	Date     string              `json:"date"`
	DateURL  string              `json:"dateUrl"`
	IsRange  bool                `json:"isRange"`
	Schedule []model.LessonEntry `json:"schedule"`
	Count    int                 `json:"count"`
}

type rangeSplitResponse struct {
	Success bool                `json:"success"`
	Group   string              `json:"group"`
	Date    string              `json:"date"`
	DateURL string              `json:"dateUrl"`
	IsRange bool                `json:"isRange"`
	Days    []model.DaySchedule `json:"days"`
	Count   int                 `json:"count"`
}

type bellsResponse struct {
	Success    bool               `json:"success"`
	Schedule   model.BellSchedule `json:"schedule"`
	LastUpdate time.Time          `json:"lastUpdate"`
}

type groupsResponse struct {
	Success bool     `json:"success"`
	Groups  []string `json:"groups"`
}

type testResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	DatesCount int    `json:"datesCount"`
}

type refreshResponse struct {
	Success bool `json:"success"`
}

func (s *Server) handleDates(w http.ResponseWriter, _ *http.Request) {
	list := s.q.ListDates()
	resp := datesResponse{Success: true, Dates: list.Dates, Failed: list.Failed}
	if !list.LastUpdate.IsZero() {
		resp.LastUpdate = &list.LastUpdate
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	date := param(r, "date")
	entries, _ := s.q.ScheduleForDate(r.Context(), date)
	s.writeJSON(w, http.StatusOK, scheduleResponse{
		Success:  true,
		Date:     date,
		Schedule: entries,
		Count:    len(entries),
	})
}

func (s *Server) handleGroupSchedule(w http.ResponseWriter, r *http.Request) {
	group := param(r, "group")
	gs := s.q.ScheduleForGroup(r.Context(), param(r, "date"), group)
	if gs.Status == model.StatusNotFound {
		s.notFound(w)
		return
	}
	s.writeJSON(w, http.StatusOK, groupResponse{
		Success:  true,
		Group:    group,
		Date:     gs.Date.DisplayDate,
		DateURL:  gs.Date.URLDate,
		Schedule: gs.Schedule,
		Count:    len(gs.Schedule),
	})
}

func (s *Server) handleGroupSplit(w http.ResponseWriter, r *http.Request) {
	group := param(r, "group")
	split := s.q.SplitScheduleForGroup(r.Context(), param(r, "date"), group)
	if split.Status == model.StatusNotFound {
		s.notFound(w)
		return
	}
	if split.IsRange {
		s.writeJSON(w, http.StatusOK, rangeSplitResponse{
			Success: true,
			Group:   group,
			Date:    split.Date.DisplayDate,
			DateURL: split.Date.URLDate,
			IsRange: true,
			Days:    split.Days,
			Count:   split.Count,
		})
		return
	}
	schedule := split.Schedule
	if schedule == nil {
		schedule = []model.LessonEntry{}
	}
	s.writeJSON(w, http.StatusOK, singleSplitResponse{
		Success:  true,
		Group:    group,
		Date:     split.Date.DisplayDate,
		DateURL:  split.Date.URLDate,
		Schedule: schedule,
		Count:    split.Count,
	})
}

// handleGroupAllDates serves one date when ?date= names a known date and
// every cached date otherwise.
func (s *Server) handleGroupAllDates(w http.ResponseWriter, r *http.Request) {
	group := param(r, "group")
	date := r.URL.Query().Get("date")

	if date != "" {
		if gs := s.q.ScheduleForGroup(r.Context(), date, group); gs.Status != model.StatusNotFound {
			s.writeJSON(w, http.StatusOK, groupResponse{
				Success:  true,
				Group:    group,
				Date:     date,
				Schedule: gs.Schedule,
				Count:    len(gs.Schedule),
			})
			return
		}
	}

	entries := s.q.ScheduleForGroupAllDates(group)
	if date == "" {
		date = "all"
	}
	s.writeJSON(w, http.StatusOK, groupResponse{
		Success:  true,
		Group:    group,
		Date:     date,
		Schedule: entries,
		Count:    len(entries),
	})
}

func (s *Server) handleBells(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, bellsResponse{
		Success:    true,
		Schedule:   s.q.BellSchedule(r.Context()),
		LastUpdate: time.Now().UTC(),
	})
}

func (s *Server) handleGroups(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, groupsResponse{Success: true, Groups: s.q.GroupOrder()})
}

func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, testResponse{
		Status:     "OK",
		Message:    "Сервер работает",
		DatesCount: len(s.q.ListDates().Dates),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	if !s.trigger.Trigger() {
		s.log.Debug("refresh already pending")
	}
	s.writeJSON(w, http.StatusAccepted, refreshResponse{Success: true})
}
