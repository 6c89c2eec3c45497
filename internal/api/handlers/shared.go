package handlers

import (
	"net/http"

	"github.com/folioview/folio-backend/internal/api/response"
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	response.RespondJSON(w, status, data)
}

// respondError sends a structured error response with the given status code
func respondError(w http.ResponseWriter, status int, message string, details interface{}) {
	response.RespondError(w, status, message, details)
}
