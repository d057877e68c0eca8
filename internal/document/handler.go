package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"autosave/internal/document/model"
	"autosave/internal/document/service"
	"autosave/middleware"
	"autosave/pkg/logger"
)

type DocumentHandler struct {
	Service      *service.DocumentService
	MaxBodyBytes int64
}

func NewDocumentHandler(service *service.DocumentService, maxBodyBytes int64) *DocumentHandler {
	return &DocumentHandler{Service: service, MaxBodyBytes: maxBodyBytes}
}

// GetData serves the document, or the year label with action=getYear.
func (h *DocumentHandler) GetData(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("action") == model.ActionGetYear {
		writeJSON(w, http.StatusOK, model.YearResponse{Year: h.Service.GetYear()})
		return
	}

	doc, err := h.Service.GetDocument()
	if err != nil {
		logger.Sugar.Errorf("Error reading document: %v", err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to read data"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// PostData dispatches on the action query parameter.
func (h *DocumentHandler) PostData(w http.ResponseWriter, r *http.Request) {
	token := middleware.APIKey(r)

	switch r.URL.Query().Get("action") {
	case model.ActionVerify:
		if h.Service.Authorized(token) {
			writeJSON(w, http.StatusOK, model.VerifyResponse{Authorized: true})
		} else {
			writeJSON(w, http.StatusUnauthorized, model.VerifyResponse{Authorized: false})
		}

	case model.ActionSetYear:
		h.setYear(w, r, token)

	case model.ActionRestore:
		h.restore(w, r, token)

	default:
		h.save(w, r, token)
	}
}

func (h *DocumentHandler) setYear(w http.ResponseWriter, r *http.Request, token string) {
	if !h.Service.Authorized(token) {
		writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{Error: "Unauthorized"})
		return
	}

	body, err := h.readBody(w, r)
	if err == nil {
		err = h.Service.SetYear(token, body)
	}
	if errors.Is(err, service.ErrReadOnly) {
		writeReadOnly(w)
		return
	}
	if err != nil {
		logger.Sugar.Errorf("Error writing year: %v", err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}

func (h *DocumentHandler) restore(w http.ResponseWriter, r *http.Request, token string) {
	err := h.Service.RestoreDocument(token)
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		logger.Sugar.Warnf("[unauthorized] restore attempt from %s", middleware.ClientIP(r))
		writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{Error: "Unauthorized"})
	case errors.Is(err, service.ErrReadOnly):
		writeReadOnly(w)
	case err != nil:
		logger.Sugar.Errorf("Error restoring document: %v", err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Restore failed"})
	default:
		writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "Data restored"})
	}
}

func (h *DocumentHandler) save(w http.ResponseWriter, r *http.Request, token string) {
	if !h.Service.Authorized(token) {
		logger.Sugar.Warnf("[unauthorized] save attempt from %s", middleware.ClientIP(r))
		writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{Error: "Unauthorized"})
		return
	}

	body, err := h.readBody(w, r)
	if err == nil {
		err = h.Service.SaveDocument(token, body)
	}
	if errors.Is(err, service.ErrReadOnly) {
		writeReadOnly(w)
		return
	}
	if err != nil {
		logger.Sugar.Errorf("Error writing document: %v", err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to save data"})
		return
	}

	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "Data saved"})
}

// NotFound answers unknown POST paths with an empty 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
}

func (h *DocumentHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(http.MaxBytesReader(w, r.Body, h.MaxBodyBytes))
}

func writeReadOnly(w http.ResponseWriter) {
	writeJSON(w, http.StatusForbidden, model.ErrorResponse{Error: "Read-only mode"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
