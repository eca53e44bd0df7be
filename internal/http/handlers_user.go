package http

import (
	"net/http"

	"subtrack/internal/auth"
	"subtrack/internal/services"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	session, err := s.users.Register(r.Context(), req)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusCreated, newSessionView(session))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	session, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, newSessionView(session))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	user, err := s.users.Get(r.Context(), id.UserID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, newUserView(user))
}

func newSessionView(s services.Session) sessionView {
	return sessionView{
		User:        newUserView(s.User),
		AccessToken: s.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   s.ExpiresAt,
	}
}
