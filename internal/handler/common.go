package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// response is the envelope every endpoint returns: a success flag plus either
// a data payload or a message.
type response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Message any  `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, response{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, response{Success: true, Message: msg})
}

func writeError(w http.ResponseWriter, status int, msg any) {
	writeJSON(w, status, response{Success: false, Message: msg})
}

func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
