package app

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// RequireMethod validates that the request uses the specified HTTP method
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeStoreError maps store errors to HTTP statuses
func writeStoreError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "invalid", "field": verr.Field, "error": verr.Message})
	case errors.Is(err, ErrIndexOutOfRange), errors.Is(err, ErrPartyNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Printf("Error updating parties: %v", err)
		http.Error(w, ErrFailedToSave, http.StatusInternalServerError)
	}
}
