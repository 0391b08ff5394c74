package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/simaogato/portfolio-backend/internal/domain"
)

// maxBodyBytes bounds request bodies, a full 1000-item upload is well below it
const maxBodyBytes = 4 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreatePortfolio handles POST /api/portfolios
func (s *Server) handleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req createPortfolioRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	portfolio, err := s.portfolios.CreatePortfolio(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, createPortfolioResponse{
		PortfolioID: portfolio.ID.String(),
		Name:        portfolio.Name,
	})
}

// handleGetReturns handles GET /api/portfolios/{id}/returns?days=N
func (s *Server) handleGetReturns(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	days := s.defaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil {
			msg := "days must be an integer"
			s.writeError(w, domain.NewValidationError("Invalid query parameters", map[string]string{"days": msg}))
			return
		}
	}

	result, err := s.returns.GetPortfolioReturns(r.Context(), portfolioID, days)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toReturnsResponse(result))
}

// handleBulkUpload handles POST /api/portfolios/{id}/transactions
// Responds 207 because each item is accepted or rejected on its own
func (s *Server) handleBulkUpload(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req bulkUploadRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	inputs, details := req.toInputs()
	if len(details) > 0 {
		s.writeError(w, domain.NewValidationError("invalid transactions", details))
		return
	}

	result, err := s.transactions.BulkUpload(r.Context(), portfolioID, inputs)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusMultiStatus, toBulkUploadResponse(result))
}

// handleUpdateTransaction handles PUT /api/portfolios/{id}/transactions/{transactionId}
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	portfolioID, transactionID, err := pathIDs(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req updateTransactionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	update, details := req.toUpdate()
	if len(details) > 0 {
		s.writeError(w, domain.NewValidationError("invalid transaction update", details))
		return
	}

	result, err := s.transactions.UpdateTransaction(r.Context(), portfolioID, transactionID, update)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, updateTransactionResponse{
		Transaction: toTransactionResponse(result.Transaction),
		Warnings:    result.Warnings,
	})
}

// handleDeleteTransaction handles DELETE /api/portfolios/{id}/transactions/{transactionId}
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	portfolioID, transactionID, err := pathIDs(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.transactions.DeleteTransaction(r.Context(), portfolioID, transactionID); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
}

// Helper methods

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		msg := fmt.Sprintf("%s must be a UUID", param)
		return uuid.Nil, domain.NewValidationError(msg, map[string]string{param: msg})
	}
	return id, nil
}

func pathIDs(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	portfolioID, err := pathUUID(r, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	transactionID, err := pathUUID(r, "transactionId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return portfolioID, transactionID, nil
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.NewValidationError("invalid JSON body", map[string]string{"body": err.Error()})
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError maps domain errors to status codes
// Unexpected errors are logged and answered without their message
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Validation Error",
			Message: verr.Message,
			Details: verr.Details,
		})
	case errors.Is(err, domain.ErrPortfolioNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrTradingItemNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   "Not Found",
			Message: err.Error(),
		})
	default:
		s.log.Error().Err(err).Msg("request failed")
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Internal Server Error",
			Message: "An unexpected error occurred",
		})
	}
}
