package http

import (
	"net/http"

	"github.com/actionculture/heritage/internal/api"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	id, err := siteIDParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	events, err := s.siteService.ListEvents(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	items := make([]api.Event, 0, len(events))
	for i := range events {
		items = append(items, api.FromEvent(&events[i]))
	}
	s.writeJSON(w, http.StatusOK, api.List[api.Event]{Items: items})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := siteIDParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req api.EventRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	event, err := s.siteService.CreateEvent(r.Context(), id, req.Input())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, api.FromEvent(event))
}
