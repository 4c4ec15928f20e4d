package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		categories, err := s.svc.ListCategories(r.Context(), userID)
		if err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, categories)

	case http.MethodPost:
		var c core.Category
		if err := decodeBody(r, &c); err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		created, err := s.svc.CreateCategory(r.Context(), userID, c)
		if err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		writeMethodNotAllowed(w)
	}
}

func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	id, rest := pathID(r.URL.Path, "/categories/")
	if id == "" || rest != "" {
		writeMethodNotAllowed(w)
		return
	}

	switch r.Method {
	case http.MethodGet:
		c, err := s.svc.GetCategory(r.Context(), id, userID)
		s.writeGetResult(w, r, c, err)

	case http.MethodPut:
		var c core.Category
		if err := decodeBody(r, &c); err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		if err := s.svc.UpdateCategory(r.Context(), id, userID, c); err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		writeMessage(w, "Category updated successfully")

	case http.MethodDelete:
		if err := s.svc.DeleteCategory(r.Context(), id, userID); err != nil {
			s.writeRecordError(w, r, err)
			return
		}
		writeMessage(w, "Category deleted successfully")

	default:
		writeMethodNotAllowed(w)
	}
}
