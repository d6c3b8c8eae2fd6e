package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jpalmerr/solarboard/internal/document"
)

const (
	msgRetrieveFailed = "Failed to retrieve solar data"
	msgUpdateFailed   = "Failed to update panel range"
	msgUpdated        = "Panel range updated successfully"
	msgInvalidBody    = "Invalid JSON body"
	msgRateLimited    = "Too many requests. Please try again later."
)

// undefinedPanelID names a request that carried no panelId.
const undefinedPanelID = "undefined"

// apiResponse is the envelope for every non-projection API response.
type apiResponse struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	Error         string         `json:"error,omitempty"`
	UpdatedConfig *updatedConfig `json:"updatedConfig,omitempty"`
}

// updatedConfig echoes the accepted update back to the caller.
type updatedConfig struct {
	Min     json.RawMessage `json:"min"`
	Max     json.RawMessage `json:"max"`
	PanelID json.RawMessage `json:"panelId"`
}

func writeJSON(w http.ResponseWriter, logger zerolog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
	}
}

// updateFailure maps an update error to its status code and body.
func updateFailure(err error) (int, apiResponse) {
	var ve *document.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, apiResponse{Message: ve.Message}
	}

	var nf *document.NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound, apiResponse{Message: nf.Error()}
	}

	return http.StatusInternalServerError, apiResponse{
		Message: msgUpdateFailed,
		Error:   err.Error(),
	}
}
