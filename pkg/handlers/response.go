package handlers

import (
	"encoding/json"
	"net/http"
)

type StatusResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func (handler *PostHandler) sendJSON(w http.ResponseWriter, status int, v any) {
	resp, err := json.Marshal(v)
	if err != nil {
		http.Error(w, ErrJSONMarshal.Error(), http.StatusInternalServerError)
		handler.Logger.Error(err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, errWrite := w.Write(resp)
	if errWrite != nil {
		handler.Logger.Error(errWrite)
	}
}

func (handler *PostHandler) sendStatus(w http.ResponseWriter, status int, message string) {
	handler.sendJSON(w, status, StatusResponse{Message: message, Status: status})
}

func (handler *PostHandler) sendError(w http.ResponseWriter, status int, message string) {
	handler.sendJSON(w, status, ErrorResponse{Error: message, Status: status})
}
