package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/Tonisark/ActressManager/importer"
	"github.com/Tonisark/ActressManager/services"
)

const (
	maxImportUpload = 64 << 20
	defaultRunLimit = 20
)

type ImportHandler struct {
	Imports *services.ImportService
}

// uploadedFile returns the multipart file in field. The caller closes it.
func uploadedFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportUpload)
	if err := r.ParseMultipartForm(maxImportUpload); err != nil {
		badRequest(w, "could not parse multipart form: "+err.Error())
		return nil, "", false
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		badRequest(w, "missing file field "+field)
		return nil, "", false
	}
	return file, header.Filename, true
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, importer.ErrEmptyFile) {
		badRequest(w, "the uploaded file is empty")
		return
	}
	badRequest(w, "could not read the uploaded file: "+err.Error())
}

func (h *ImportHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	mode, err := services.ParseImportMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	file, filename, ok := uploadedFile(w, r, "csvfile")
	if !ok {
		return
	}
	defer file.Close()

	batch, err := importer.DecodeCSV(file)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	report, err := h.Imports.ImportCSV(r.Context(), batch, mode, filename)
	h.writeReport(w, r, report, err)
}

func (h *ImportHandler) ImportJSON(w http.ResponseWriter, r *http.Request) {
	file, filename, ok := uploadedFile(w, r, "jsonfile")
	if !ok {
		return
	}
	defer file.Close()

	batch, err := importer.DecodeJSON(file)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	report, err := h.Imports.ImportJSON(r.Context(), batch, filename)
	h.writeReport(w, r, report, err)
}

func (h *ImportHandler) writeReport(w http.ResponseWriter, r *http.Request, report *services.ImportReport, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ImportHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(w, "limit must be a positive number")
			return
		}
		limit = n
	}
	runs, err := h.Imports.ListRuns(limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}
