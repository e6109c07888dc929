package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"finstress/internal/ai"
	"finstress/internal/core"
)

const receiptField = "file"

// handleReceipt parses a multipart image upload into a receipt item.
func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	file, header, err := r.FormFile(receiptField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			verr := &core.ValidationError{}
			verr.Add(receiptField, "is required")
			writeError(w, r, verr)
			return
		}
		writeError(w, r, fmt.Errorf("read upload: %v: %w", err, errBadRequest))
		return
	}
	defer file.Close()

	if !ai.AllowedFile(header.Filename) {
		writeError(w, r, fmt.Errorf("file %q: allowed types are %v: %w", header.Filename, ai.AllowedExtensions, core.ErrUnreadableImage))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, fmt.Errorf("read upload: %v: %w", err, errBadRequest))
		return
	}
	item, err := s.deps.Receipts.Parse(r.Context(), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
