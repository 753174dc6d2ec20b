package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Tonisark/ActressManager/database"
	"github.com/Tonisark/ActressManager/models"
	"github.com/Tonisark/ActressManager/services"
)

const maxThumbnailUpload = 32 << 20

type ProfileHandler struct {
	Profiles *services.ProfileService
}

func parseID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &services.ValidationError{Field: param, Message: fmt.Sprintf("invalid profile id %q", raw)}
	}
	return id, nil
}

func optionalInt(q url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &services.ValidationError{Field: key, Message: fmt.Sprintf("must be a whole number, got %q", raw)}
	}
	return &v, nil
}

// parseProfileFilter reads the list, search and export query parameters.
func parseProfileFilter(r *http.Request) (database.ProfileFilter, error) {
	q := r.URL.Query()
	f := database.ProfileFilter{
		Query:              q.Get("q"),
		Status:             q.Get("status"),
		Ethnicity:          q.Get("ethnicity"),
		OccupationCategory: q.Get("occupation_category"),
		Tag:                q.Get("tag"),
		SortBy:             q.Get("sort"),
	}

	ints := []struct {
		key string
		dst **int
	}{
		{"age_min", &f.AgeMin},
		{"age_max", &f.AgeMax},
		{"height_min", &f.HeightMin},
		{"height_max", &f.HeightMax},
	}
	for _, p := range ints {
		v, err := optionalInt(q, p.key)
		if err != nil {
			return f, err
		}
		*p.dst = v
	}

	page, err := optionalInt(q, "page")
	if err != nil {
		return f, err
	}
	if page != nil {
		f.Page = *page
	}
	size, err := optionalInt(q, "page_size")
	if err != nil {
		return f, err
	}
	if size != nil {
		f.PageSize = *size
	}
	return f, nil
}

func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseProfileFilter(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	page, err := h.Profiles.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func decodeProfile(r *http.Request) (models.Profile, error) {
	var p models.Profile
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return p, &services.ValidationError{Message: "invalid request body: " + err.Error()}
	}
	return p, nil
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := decodeProfile(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	result, err := h.Profiles.Create(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.Profiles.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := decodeProfile(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	result, err := h.Profiles.Update(r.Context(), id, p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	recycle, _ := strconv.ParseBool(r.URL.Query().Get("recycle"))
	result, err := h.Profiles.Delete(r.Context(), id, recycle)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ProfileHandler) UploadThumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxThumbnailUpload)
	if err := r.ParseMultipartForm(maxThumbnailUpload); err != nil {
		badRequest(w, "could not parse multipart form: "+err.Error())
		return
	}
	file, _, err := r.FormFile("thumbnail")
	if err != nil {
		badRequest(w, "missing thumbnail file")
		return
	}
	defer file.Close()

	p, err := h.Profiles.SetThumbnail(r.Context(), id, file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	images, err := h.Profiles.Gallery(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

func (h *ProfileHandler) SocialSync(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var stats map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&stats); err != nil {
		badRequest(w, "body must be a JSON object of stats")
		return
	}
	p, err := h.Profiles.AppendSocialSync(r.Context(), id, stats)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type bulkRequest struct {
	Action    string  `json:"action"`
	IDs       []int64 `json:"ids"`
	NewStatus string  `json:"new_status"`
}

func (h *ProfileHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	var result *services.BulkResult
	var err error
	switch req.Action {
	case "delete":
		result, err = h.Profiles.BulkDelete(r.Context(), req.IDs)
	case "update_status":
		result, err = h.Profiles.BulkStatus(r.Context(), req.IDs, req.NewStatus)
	default:
		err = &services.ValidationError{Field: "action", Message: fmt.Sprintf("unknown bulk action %q", req.Action)}
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ProfileHandler) MergeCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.Profiles.MergeCandidates(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (h *ProfileHandler) Merge(w http.ResponseWriter, r *http.Request) {
	keepID, err := parseID(r, "id1")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	removeID, err := parseID(r, "id2")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	result, err := h.Profiles.Merge(r.Context(), keepID, removeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ProfileHandler) export(w http.ResponseWriter, r *http.Request, contentType, ext string,
	write func(buf *bytes.Buffer, f database.ProfileFilter) error) {
	f, err := parseProfileFilter(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := write(&buf, f); err != nil {
		writeServiceError(w, r, err)
		return
	}
	filename := fmt.Sprintf("profiles_export_%s.%s", time.Now().Format("20060102_150405"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *ProfileHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "text/csv; charset=utf-8", "csv", func(buf *bytes.Buffer, f database.ProfileFilter) error {
		_, err := h.Profiles.ExportCSV(r.Context(), buf, f)
		return err
	})
}

func (h *ProfileHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/json", "json", func(buf *bytes.Buffer, f database.ProfileFilter) error {
		_, err := h.Profiles.ExportJSON(r.Context(), buf, f)
		return err
	})
}

func (h *ProfileHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Profiles.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *ProfileHandler) TagCloud(w http.ResponseWriter, r *http.Request) {
	tags, err := h.Profiles.TagCloud(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *ProfileHandler) ScanMissing(w http.ResponseWriter, r *http.Request) {
	missing, err := h.Profiles.ScanMissing(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, missing)
}

func (h *ProfileHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	n, err := h.Profiles.RebuildIndex(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"entries": n})
}

func (h *ProfileHandler) IndexHealth(w http.ResponseWriter, r *http.Request) {
	drift, err := h.Profiles.CheckIndex(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"clean": drift.Clean(), "drift": drift})
}

func (h *ProfileHandler) Options(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.EnumOptions)
}
