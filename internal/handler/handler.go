// Package handler содержит HTTP обработчики сервиса пакетных платежей.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/InQaaaaGit/lnboost.git/internal/middleware"
	"github.com/InQaaaaGit/lnboost.git/internal/models"
	"github.com/InQaaaaGit/lnboost.git/internal/service"
	"github.com/InQaaaaGit/lnboost.git/internal/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	contentTypeJSON = "application/json"
	// maxBodySize ограничивает размер тела запроса
	maxBodySize = 1 << 20
)

// errorResponse описывает тело ответа об ошибке boost
type errorResponse struct {
	Message string `json:"message"`
}

// statusResponse описывает тело ответов эндпоинтов библиотеки
type statusResponse struct {
	Status any    `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Handler struct {
	boost   service.BoostService
	library service.LibraryService
	logger  *zap.Logger
}

func NewHandler(boost service.BoostService, library service.LibraryService, logger *zap.Logger) *Handler {
	return &Handler{
		boost:   boost,
		library: library,
		logger:  logger,
	}
}

// HandleBoost обрабатывает POST запрос с пакетом платежей.
// Без токена или без списка получателей возвращает пустой массив, не вызывая диспетчер.
func (h *Handler) HandleBoost(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.AccessTokenFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusOK, []struct{}{})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Server Error"})
		return
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			h.logger.Error("Error closing request body", zap.Error(err))
		}
	}()

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		h.writeJSON(w, http.StatusOK, []struct{}{})
		return
	}

	var requests []models.PaymentRequest
	if err := json.Unmarshal(body, &requests); err != nil {
		h.logger.Error("Invalid boost request body", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Server Error"})
		return
	}

	result, err := h.boost.Dispatch(r.Context(), requests, token)
	if err != nil {
		h.logger.Error("Boost failed",
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Server Error"})
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleSaveLibrary сохраняет библиотеку под lightning-адресом владельца сессии
func (h *Handler) HandleSaveLibrary(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.AccessTokenFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, statusResponse{Status: http.StatusUnauthorized, Error: "Token not found"})
		return
	}

	var req models.SaveLibraryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		h.logger.Error("Invalid library request body", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, statusResponse{Status: http.StatusInternalServerError, Error: "Server Error"})
		return
	}
	if len(req.Library) == 0 {
		req.Library = json.RawMessage("null")
	}

	if _, err := h.library.SaveLibrary(r.Context(), token, req.Library); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			h.writeJSON(w, http.StatusNotFound, statusResponse{Status: http.StatusNotFound, Error: "User not found"})
			return
		}
		h.logger.Error("Error saving library", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, statusResponse{Status: http.StatusInternalServerError, Error: "Server Error"})
		return
	}

	h.writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
}

// HandleGetLibrary возвращает сохраненную библиотеку по lightning-адресу
func (h *Handler) HandleGetLibrary(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	library, err := h.library.GetLibrary(r.Context(), address)
	if err != nil {
		if errors.Is(err, storage.ErrLibraryNotFound) || errors.Is(err, storage.ErrEmptyAddress) {
			h.writeJSON(w, http.StatusNotFound, statusResponse{Status: http.StatusNotFound, Error: "Library not found"})
			return
		}
		h.logger.Error("Error getting library", zap.String("lightning_address", address), zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, statusResponse{Status: http.StatusInternalServerError, Error: "Server Error"})
		return
	}

	h.writeJSON(w, http.StatusOK, models.Library{LightningAddress: address, Library: library})
}

// WithGzip добавляет поддержку gzip сжатия
func (h *Handler) WithGzip(next http.Handler) http.Handler {
	return middleware.GzipMiddleware(next)
}

// WithLogging добавляет логирование запросов
func (h *Handler) WithLogging(next http.Handler) http.Handler {
	return middleware.LoggerMiddleware(h.logger)(next)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error writing JSON response", zap.Error(err))
	}
}
