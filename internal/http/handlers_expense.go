package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		expenses, err := s.svc.ListExpenses(r.Context(), userID)
		if err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, expenses)

	case http.MethodPost:
		var e core.Expense
		if err := decodeBody(r, &e); err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		created, err := s.svc.CreateExpense(r.Context(), userID, e)
		if err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		writeMethodNotAllowed(w)
	}
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	id, rest := pathID(r.URL.Path, "/expenses/")
	if id == "" || rest != "" {
		writeMethodNotAllowed(w)
		return
	}

	switch r.Method {
	case http.MethodGet:
		e, err := s.svc.GetExpense(r.Context(), id, userID)
		s.writeGetResult(w, r, e, err)

	case http.MethodPut:
		var e core.Expense
		if err := decodeBody(r, &e); err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		if err := s.svc.UpdateExpense(r.Context(), id, userID, e); err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		writeMessage(w, "Expense updated successfully")

	case http.MethodDelete:
		if err := s.svc.DeleteExpense(r.Context(), id, userID); err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		writeMessage(w, "Expense deleted successfully")

	default:
		writeMethodNotAllowed(w)
	}
}
