package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"subtrack/internal/auth"
	"subtrack/internal/core"
	"subtrack/internal/log"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
	Row    int                 `json:"row,omitempty"`
}

type subscriptionView struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Cost             core.Money `json:"cost"`
	SubscriptionDate string     `json:"subscription_date"`
	RenewalType      string     `json:"renewal_type"`
	RenewalDate      string     `json:"renewal_date"`
	MonthlyCost      core.Money `json:"monthly_cost"`
	YearlyCost       core.Money `json:"yearly_cost"`
	RenewingSoon     bool       `json:"renewing_in_7_days"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type userView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionView struct {
	User        userView  `json:"user"`
	AccessToken string    `json:"access"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func newSubscriptionView(s core.Subscription, today core.Date, windowDays int) subscriptionView {
	return subscriptionView{
		ID:               s.ID,
		Name:             s.Name,
		Cost:             s.Cost,
		SubscriptionDate: s.SubscriptionDate.String(),
		RenewalType:      s.RenewalType.String(),
		RenewalDate:      s.RenewalDate().String(),
		MonthlyCost:      s.MonthlyCost(),
		YearlyCost:       s.YearlyCost(),
		RenewingSoon:     s.RenewingSoon(today, windowDays),
		IsActive:         s.IsActive,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func newUserView(u core.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
	}
}

func respondWithJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to write response", log.FieldError, err)
	}
}

func respondWithMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondWithJSON(w, r, status, errorResponse{Error: msg})
}

// respondWithError maps error kinds to status codes. Unclassified errors are
// logged and reported as an opaque 500.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldPath, r.URL.Path)
	}
	respondWithJSON(w, r, status, body)
}

func classify(err error) (int, errorResponse) {
	body := errorResponse{Error: err.Error()}

	var rowErr *core.RowError
	if errors.As(err, &rowErr) {
		body.Row = rowErr.Row
	}
	var fields core.FieldErrors
	if errors.As(err, &fields) {
		body.Error = "validation failed"
		if body.Row > 0 {
			body.Error = rowErr.Error()
		}
		body.Fields = fields
		return http.StatusBadRequest, body
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusBadRequest, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, core.ErrDuplicateName), errors.Is(err, core.ErrDuplicateUsername):
		return http.StatusConflict, body
	case errors.Is(err, core.ErrBusinessRule), errors.Is(err, core.ErrMalformedInput), errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest, body
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "not found"}
	case errors.Is(err, core.ErrAccessDenied):
		return http.StatusForbidden, errorResponse{Error: "you do not have permission to access this subscription"}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
