package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/configsrv/hoganserver/internal/apperr"
)

var errBadRequest = &apperr.BadRequest{Message: "could not read request body"}

func writeError(w http.ResponseWriter, err error) {
	status, body := apperr.StatusAndBody(err)
	if body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
