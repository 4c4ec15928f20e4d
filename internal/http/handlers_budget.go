package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		budgets, err := s.svc.ListBudgets(r.Context(), userID)
		if err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, budgets)

	case http.MethodPost:
		var b core.Budget
		if err := decodeBody(r, &b); err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		created, err := s.svc.CreateBudget(r.Context(), userID, b)
		if err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		writeMethodNotAllowed(w)
	}
}

func (s *Server) handleBudgetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	id, rest := pathID(r.URL.Path, "/budgets/")
	if id == "" {
		writeMethodNotAllowed(w)
		return
	}

	if rest == "progress" {
		s.handleBudgetProgress(w, r, id, userID)
		return
	}
	if rest != "" {
		writeMethodNotAllowed(w)
		return
	}

	switch r.Method {
	case http.MethodGet:
		b, err := s.svc.GetBudget(r.Context(), id, userID)
		s.writeGetResult(w, r, b, err)

	case http.MethodPut:
		var b core.Budget
		if err := decodeBody(r, &b); err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		if err := s.svc.UpdateBudget(r.Context(), id, userID, b); err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		writeMessage(w, "Budget updated successfully")

	case http.MethodDelete:
		if err := s.svc.DeleteBudget(r.Context(), id, userID); err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		writeMessage(w, "Budget deleted successfully")

	default:
		writeMethodNotAllowed(w)
	}
}

// handleBudgetProgress reports current-period spend against one budget. An
// unknown budget id surfaces as an empty object, matching single-record GET.
func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request, id, userID string) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	p, err := s.svc.BudgetProgress(r.Context(), id, userID)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	if err != nil {
		s.writeRecordError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
