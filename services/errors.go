package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a profile id does not exist.
var ErrNotFound = errors.New("profile not found")

// ValidationError rejects caller input.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DuplicateError blocks a write because the name already exists.
type DuplicateError struct {
	ExistingID int64  `json:"existing_id"`
	Name       string `json:"name"`
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate profile %q already exists (ID: %d)", e.Name, e.ExistingID)
}

// DuplicateWarning reports a similar existing name without blocking.
type DuplicateWarning struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// IndexDesyncError means the search index could not follow a record write.
// The write was rolled back, so retrying is safe.
type IndexDesyncError struct {
	IDs []int64
	Err error
}

func (e *IndexDesyncError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("search index update failed for profiles [%s]: %v", strings.Join(ids, ", "), e.Err)
}

func (e *IndexDesyncError) Unwrap() error { return e.Err }

// MediaWarning is a media folder operation that failed after the metadata
// change committed.
type MediaWarning struct {
	Folder string `json:"folder"`
	Op     string `json:"op"`
	Err    error  `json:"-"`
}

func (w MediaWarning) Error() string {
	return fmt.Sprintf("media %s of folder %q failed: %v", w.Op, w.Folder, w.Err)
}

func (w MediaWarning) Unwrap() error { return w.Err }

// MarshalJSON includes the error text.
func (w MediaWarning) MarshalJSON() ([]byte, error) {
	type alias MediaWarning
	msg := ""
	if w.Err != nil {
		msg = w.Err.Error()
	}
	return json.Marshal(struct {
		alias
		Error string `json:"error"`
	}{alias(w), msg})
}
