package console

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/park285/llm-chess-arena/internal/match"
	"github.com/park285/llm-chess-arena/pkg/matchdto"
	"go.uber.org/zap"
)

// errorFor maps orchestrator errors onto HTTP status and wire codes.
func errorFor(err error) (int, matchdto.ErrorResponse) {
	var te *match.TransportError
	switch {
	case errors.Is(err, match.ErrInvalidTransition):
		return http.StatusConflict, matchdto.ErrorResponse{Code: matchdto.CodeInvalidTransition, Message: err.Error()}
	case errors.Is(err, match.ErrGameOver):
		return http.StatusConflict, matchdto.ErrorResponse{Code: matchdto.CodeGameOver, Message: err.Error()}
	case errors.Is(err, match.ErrMoveInFlight):
		return http.StatusConflict, matchdto.ErrorResponse{Code: matchdto.CodeMoveInFlight, Message: err.Error(), Retryable: true}
	case errors.Is(err, match.ErrInvalidAgents):
		return http.StatusBadRequest, matchdto.ErrorResponse{Code: matchdto.CodeInvalidAgents, Message: err.Error()}
	case errors.Is(err, match.ErrDelayOutOfRange):
		return http.StatusBadRequest, matchdto.ErrorResponse{Code: matchdto.CodeDelayOutOfRange, Message: err.Error()}
	case errors.Is(err, match.ErrNotSynced):
		return http.StatusServiceUnavailable, matchdto.ErrorResponse{Code: matchdto.CodeNotSynced, Message: err.Error(), Retryable: true}
	case errors.As(err, &te):
		return http.StatusBadGateway, matchdto.ErrorResponse{Code: matchdto.CodeTransport, Message: err.Error(), Retryable: true}
	default:
		return http.StatusInternalServerError, matchdto.ErrorResponse{Code: matchdto.CodeInternal, Message: err.Error()}
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	code, body := errorFor(err)
	if code >= 500 {
		s.logger.Warn("console_call_failed", zap.Int("status", code), zap.Error(err))
	}
	writeError(w, code, body)
}

func writeError(w http.ResponseWriter, code int, body matchdto.ErrorResponse) {
	writeJSON(w, code, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
