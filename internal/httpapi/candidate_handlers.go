package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"talentgate.org/internal/auth"
)

type candidateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (a *API) handleCandidates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.requirePermission(w, r, auth.ResourceCandidates, auth.ActionRead) {
			return
		}
		offset, limit, err := parsePage(r)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		candidates, err := a.store.ListCandidates(r.Context(), offset, limit)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		if candidates == nil {
			candidates = []*auth.Candidate{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
	case http.MethodPost:
		if !a.requirePermission(w, r, auth.ResourceCandidates, auth.ActionCreate) {
			return
		}
		var req candidateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, r, http.StatusBadRequest, "name is required")
			return
		}
		c := &auth.Candidate{Name: req.Name, Email: strings.TrimSpace(req.Email)}
		if actor, ok := auth.UserFromContext(r.Context()); ok {
			c.CreatedBy = actor.ID
		}
		if err := a.store.CreateCandidate(r.Context(), c); err != nil {
			handleStoreError(w, r, err)
			return
		}
		a.recorder.Record(r.Context(), "candidate.create", "candidates", c.Name)
		w.Header().Set("Location", fmt.Sprintf("/v1/candidates/%d", c.ID))
		writeJSON(w, http.StatusCreated, c)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCandidateResource(w http.ResponseWriter, r *http.Request) {
	id, rest, err := pathID(r.URL.Path, "/v1/candidates/")
	if err != nil || len(rest) != 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		if !a.requirePermission(w, r, auth.ResourceCandidates, auth.ActionRead) {
			return
		}
		c, err := a.store.FindCandidate(r.Context(), id)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case http.MethodPut:
		if !a.requirePermission(w, r, auth.ResourceCandidates, auth.ActionUpdate) {
			return
		}
		var req candidateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		c, err := a.store.FindCandidate(r.Context(), id)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		if name := strings.TrimSpace(req.Name); name != "" {
			c.Name = name
		}
		if email := strings.TrimSpace(req.Email); email != "" {
			c.Email = email
		}
		if err := a.store.UpdateCandidate(r.Context(), c); err != nil {
			handleStoreError(w, r, err)
			return
		}
		a.recorder.Record(r.Context(), "candidate.update", "candidates", fmt.Sprintf("id=%d", id))
		writeJSON(w, http.StatusOK, c)
	case http.MethodDelete:
		if !a.requirePermission(w, r, auth.ResourceCandidates, auth.ActionDelete) {
			return
		}
		if err := a.store.DeleteCandidate(r.Context(), id); err != nil {
			handleStoreError(w, r, err)
			return
		}
		a.recorder.Record(r.Context(), "candidate.delete", "candidates", fmt.Sprintf("id=%d", id))
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
