package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"html"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jpalmerr/solarboard/internal/document"
	xlog "github.com/jpalmerr/solarboard/internal/log"
	"github.com/jpalmerr/solarboard/internal/metrics"
	"github.com/jpalmerr/solarboard/internal/store"
)

// updateRangeRequest is the POST /api/update-panel-range body. Fields stay
// raw so their JSON types can be checked.
type updateRangeRequest struct {
	PanelID json.RawMessage `json:"panelId"`
	Min     json.RawMessage `json:"min"`
	Max     json.RawMessage `json:"max"`
}

// handleDashboard serves the landing page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.cfg.StaticDir != "" {
		index := filepath.Join(s.cfg.StaticDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return
		}
	}

	if s.cfg.Assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.cfg.Assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// escape to keep the title from injecting markup
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(s.cfg.Title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error().Err(err).Msg("failed to write dashboard response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSolarData returns the projection of every panel, keyed by panel id.
func (s *Server) handleSolarData(w http.ResponseWriter, r *http.Request) {
	logger := xlog.WithContext(r.Context(), s.logger)

	doc, err := s.store.Load(r.Context())
	if err != nil {
		logger.Error().Err(err).Msg("error reading dashboard config")
		writeJSON(w, logger, http.StatusInternalServerError, apiResponse{
			Message: msgRetrieveFailed,
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, logger, http.StatusOK, doc.Project())
}

// handleUpdateRange sets one panel's min/max and persists the document.
func (s *Server) handleUpdateRange(w http.ResponseWriter, r *http.Request) {
	logger := xlog.WithContext(r.Context(), s.logger)

	var req updateRangeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	err := dec.Decode(&req)
	if err == nil {
		err = expectEOF(dec)
	}
	if err != nil {
		metrics.RecordRangeUpdate(metrics.OutcomeInvalid)
		writeJSON(w, logger, http.StatusBadRequest, apiResponse{
			Message: msgInvalidBody,
			Error:   err.Error(),
		})
		return
	}

	rng := document.Range{Min: req.Min, Max: req.Max}
	if err := rng.Validate(); err != nil {
		metrics.RecordRangeUpdate(metrics.OutcomeInvalid)
		status, body := updateFailure(err)
		writeJSON(w, logger, status, body)
		return
	}
	rng = rng.Canonical()

	panelID, matchable := panelIDString(req.PanelID)
	update := store.RangeUpdate{PanelID: panelID, Range: rng, NoMatch: !matchable}

	if err := s.store.UpdateRange(r.Context(), update); err != nil {
		status, body := updateFailure(err)
		if status == http.StatusInternalServerError {
			logger.Error().Err(err).Str("panel_id", panelID).Msg("error updating panel range")
		} else {
			logger.Debug().Err(err).Str("panel_id", panelID).Msg("panel range update rejected")
		}
		writeJSON(w, logger, status, body)
		return
	}

	writeJSON(w, logger, http.StatusOK, apiResponse{
		Success: true,
		Message: msgUpdated,
		UpdatedConfig: &updatedConfig{
			Min:     rng.Min,
			Max:     rng.Max,
			PanelID: req.PanelID,
		},
	})
}

// panelIDString renders a panelId for lookup. Only JSON strings and numbers
// can match a panel; anything else is reported by its text, "undefined"
// when absent or null.
func panelIDString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return undefinedPanelID, false
	}
	r := gjson.ParseBytes(raw)
	switch r.Type {
	case gjson.String:
		return r.Str, true
	case gjson.Number:
		return r.String(), true
	case gjson.Null:
		return undefinedPanelID, false
	default:
		return string(raw), false
	}
}

// expectEOF fails when anything but whitespace follows the decoded value.
func expectEOF(dec *json.Decoder) error {
	_, err := dec.Token()
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return err
	default:
		return errors.New("unexpected data after JSON body")
	}
}
