package api

import (
	"encoding/json"
	"net/http"

	"github.com/vytor/dailyalbum/internal/errors"
	"github.com/vytor/dailyalbum/internal/logger"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// handleError centralizes error handling for HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewInternalError(err)
	}

	if appErr.Status >= 500 {
		log.Error("server error: %v", appErr)
	} else if appErr.Status >= 400 {
		log.Warn("client error: %v", appErr)
	} else {
		log.Debug("error: %v", appErr)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	// Internal details stay in the log; clients only see the generic message.
	if err := json.NewEncoder(w).Encode(map[string]errorBody{
		"error": {
			Code:      appErr.Code,
			Message:   appErr.Message,
			Retryable: appErr.Retryable(),
		},
	}); err != nil {
		log.Error("failed to encode error response: %v", err)
	}
}
