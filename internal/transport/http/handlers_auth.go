package http

import (
	"net/http"

	"github.com/actionculture/heritage/internal/api"
	"github.com/actionculture/heritage/internal/service"
)

// Health check

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.authService.Login(r.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: getClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.LoginResponse{
		AccessToken: result.AccessToken,
		ExpiresIn:   result.ExpiresInSeconds,
		User:        api.FromUser(result.User),
	})
}
