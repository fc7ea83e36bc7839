package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse writes the JSON error envelope the chat frontend expects
// for pre-upgrade rejections: {"error": code, "message": detail}. Once a
// connection is upgraded to a websocket, errors travel as error events
// instead.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON encodes data as a JSON response body. The status header is only
// written for non-200 codes so handlers that stream after a default OK keep
// working.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}
