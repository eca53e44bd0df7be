package http

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"subtrack/internal/auth"
	"subtrack/internal/core"
	"subtrack/internal/log"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in memory.
const multipartMemory = 1 << 20

func ownerID(r *http.Request) int64 {
	id, _ := auth.IdentityFrom(r.Context())
	return id.UserID
}

func (s *Server) views(subs []core.Subscription) []subscriptionView {
	today, window := s.subs.Today(), s.subs.RenewalWindowDays()
	out := make([]subscriptionView, len(subs))
	for i, sub := range subs {
		out[i] = newSubscriptionView(sub, today, window)
	}
	return out
}

func (s *Server) view(sub core.Subscription) subscriptionView {
	return newSubscriptionView(sub, s.subs.Today(), s.subs.RenewalWindowDays())
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.subs.List(r.Context(), ownerID(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, s.views(subs))
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	sub, err := s.subs.Create(r.Context(), ownerID(r), req.input())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusCreated, s.view(sub))
}

func (s *Server) handleReplaceSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req subscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	sub, err := s.subs.Replace(r.Context(), ownerID(r), id, req.input())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, s.view(sub))
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if err := s.subs.Delete(r.Context(), ownerID(r), id); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.subs.Statistics(r.Context(), ownerID(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, stats)
}

// handleBulkUpload imports every row of the uploaded CSV or none of them.
func (s *Server) handleBulkUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithMessage(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file exceeds the %d byte limit", s.maxUpload))
			return
		}
		respondWithMessage(w, r, http.StatusBadRequest, "No file provided")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithMessage(w, r, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		respondWithMessage(w, r, http.StatusBadRequest, "File is not a CSV")
		return
	}

	owner := ownerID(r)
	created, err := s.subs.Import(r.Context(), owner, file)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Bulk upload imported",
		log.FieldUserID, owner,
		log.FieldRows, len(created),
		log.FieldOperation, log.OpImport)
	respondWithJSON(w, r, http.StatusCreated, map[string]any{
		"message":       fmt.Sprintf("imported %d subscriptions", len(created)),
		"subscriptions": s.views(created),
	})
}
