package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/KaramelBytes/qtable-cli/internal/loader"
	"github.com/KaramelBytes/qtable-cli/internal/logging"
	"github.com/KaramelBytes/qtable-cli/internal/preview"
	"github.com/KaramelBytes/qtable-cli/internal/query"
	"github.com/google/uuid"
)

// TransformRequest is the body of POST /api/transform.
type TransformRequest struct {
	CSV         string `json:"csv"`
	Instruction string `json:"instruction"`
	// PreviewRows overrides the configured preview size when set.
	PreviewRows *int `json:"preview_rows,omitempty"`
	// Delimiter takes the names loader.ParseDelimiter accepts; comma when empty.
	Delimiter string `json:"delimiter,omitempty"`
}

// TransformResponse is returned for every parsed request, including
// instructions that did not apply.
type TransformResponse struct {
	ID      string     `json:"id"`
	Message string     `json:"message"`
	Kind    query.Kind `json:"kind"`
	Applied bool       `json:"applied"`
	Rows    int        `json:"rows"`
	Columns []string   `json:"columns"`
	Preview [][]string `json:"preview"`
	CSV     string     `json:"csv"`
}

// ErrorResponse is the body of every 4xx/5xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req TransformRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "body_too_large",
				fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid_json", fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.CSV) == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_csv", errors.New("csv is required"))
		return
	}

	opt := loader.DefaultOptions()
	if req.Delimiter != "" {
		d, err := loader.ParseDelimiter(req.Delimiter)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_delimiter", err)
			return
		}
		opt.Delimiter = d
	}
	df, err := loader.ReadCSV(strings.NewReader(req.CSV), opt)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_csv", fmt.Errorf("parse csv: %w", err))
		return
	}

	log := logging.WithFields(r.Context(), "instruction", req.Instruction)
	out := query.New(query.WithLogger(log)).Transform(df, req.Instruction)

	body, err := loader.EncodeCSV(out.Table)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "encode_failed", fmt.Errorf("encode csv: %w", err))
		return
	}
	n := s.cfg.PreviewRows
	if req.PreviewRows != nil && *req.PreviewRows >= 0 {
		n = *req.PreviewRows
	}
	cols, rows := preview.Head(out.Table, n)

	resp := TransformResponse{
		ID:      uuid.NewString(),
		Message: out.Message,
		Kind:    out.Kind,
		Applied: out.Applied,
		Rows:    out.Table.Nrow(),
		Columns: cols,
		Preview: rows,
		CSV:     string(body),
	}
	log.Info("transform handled", "id", resp.ID, "kind", out.Kind, "applied", out.Applied, "rows", resp.Rows)
	writeJSON(w, r, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	logging.FromContext(r.Context()).Warn("request error",
		"path", r.URL.Path,
		"status", status,
		"code", code,
		"error", err,
	)
	writeJSON(w, r, status, ErrorResponse{Error: err.Error(), Code: code})
}
