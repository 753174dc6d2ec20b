package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Tonisark/ActressManager/database"
	"github.com/Tonisark/ActressManager/importer"
	"github.com/Tonisark/ActressManager/logging"
	"github.com/Tonisark/ActressManager/metrics"
	"github.com/Tonisark/ActressManager/models"
	"github.com/Tonisark/ActressManager/realtime"
	"github.com/Tonisark/ActressManager/repository"
	"github.com/Tonisark/ActressManager/similarity"
	"github.com/Tonisark/ActressManager/utils"
)

// ImportMode decides what happens to a row whose name already exists.
type ImportMode string

const (
	ImportModeSkip   ImportMode = "skip"
	ImportModeUpdate ImportMode = "update"
)

const (
	SourceCSV  = "csv"
	SourceJSON = "json"
)

// row outcomes, also used as metric labels
const (
	outcomeInserted = "inserted"
	outcomeUpdated  = "updated"
	outcomeSkipped  = "skipped"
	outcomeFailed   = "failed"
)

// ParseImportMode accepts "skip", "update" or empty (skip).
func ParseImportMode(raw string) (ImportMode, error) {
	switch ImportMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ImportModeSkip:
		return ImportModeSkip, nil
	case ImportModeUpdate:
		return ImportModeUpdate, nil
	}
	return "", &ValidationError{Field: "mode", Message: fmt.Sprintf("unknown import mode %q, expected skip or update", raw)}
}

// RowError describes a row that could not be written.
type RowError struct {
	Line    int    `json:"line"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// ImportReport summarizes one import batch.
type ImportReport struct {
	RunID    uint       `json:"run_id,omitempty"`
	Source   string     `json:"source"`
	Filename string     `json:"filename,omitempty"`
	Mode     ImportMode `json:"mode"`
	Upserted int        `json:"upserted"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors"`
}

// ImportService applies decoded batches to the store, one commit per row.
type ImportService struct {
	profiles *ProfileService
	runs     repository.ImportRunRepository
	events   realtime.Publisher
}

// NewImportService shares the profile service's commit path. runs may be nil,
// in which case no audit record is written.
func NewImportService(profiles *ProfileService, runs repository.ImportRunRepository) *ImportService {
	return &ImportService{
		profiles: profiles,
		runs:     runs,
		events:   profiles.events,
	}
}

// ImportCSV applies a CSV batch. Existing names are skipped or, in update
// mode, updated when the names are similar enough.
func (s *ImportService) ImportCSV(ctx context.Context, batch *importer.Batch, mode ImportMode, filename string) (*ImportReport, error) {
	if mode != ImportModeSkip && mode != ImportModeUpdate {
		return nil, &ValidationError{Field: "mode", Message: fmt.Sprintf("unknown import mode %q", mode)}
	}
	return s.run(ctx, batch, SourceCSV, mode, filename)
}

// ImportJSON applies a JSON batch. Existing names are always skipped.
func (s *ImportService) ImportJSON(ctx context.Context, batch *importer.Batch, filename string) (*ImportReport, error) {
	return s.run(ctx, batch, SourceJSON, ImportModeSkip, filename)
}

// ListRuns returns the most recent import audit records.
func (s *ImportService) ListRuns(limit int) ([]models.ImportRun, error) {
	if s.runs == nil {
		return []models.ImportRun{}, nil
	}
	return s.runs.ListRecent(limit)
}

func (s *ImportService) run(ctx context.Context, batch *importer.Batch, source string, mode ImportMode, filename string) (*ImportReport, error) {
	log := logging.WithFields(ctx, "component", "import", "source", source, "mode", mode)
	started := time.Now()
	report := &ImportReport{Source: source, Filename: filename, Mode: mode, Errors: []RowError{}}

	var runErr error
	for _, row := range batch.Rows {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		outcome, err := s.importRow(ctx, row, mode)
		if err != nil {
			outcome = outcomeFailed
			report.Errors = append(report.Errors, RowError{Line: row.Line, Name: row.Profile.Name, Message: err.Error()})
			log.Warn("import row failed", "line", row.Line, "name", row.Profile.Name, "error", err)
		}
		switch outcome {
		case outcomeInserted, outcomeUpdated:
			report.Upserted++
		default:
			report.Skipped++
		}
		metrics.ImportRow(source, outcome)
	}

	s.recordRun(report, started)
	log.Info("import finished", "upserted", report.Upserted, "skipped", report.Skipped, "errors", len(report.Errors), "duration", time.Since(started))
	s.events.Broadcast(realtime.Event{
		Type:   realtime.EventImportCompleted,
		Status: string(mode),
		Extra: map[string]interface{}{
			"source":   source,
			"upserted": report.Upserted,
			"skipped":  report.Skipped,
			"errors":   len(report.Errors),
		},
	})
	return report, runErr
}

func (s *ImportService) recordRun(report *ImportReport, started time.Time) {
	if s.runs == nil {
		return
	}
	run := models.ImportRun{
		Source:     report.Source,
		Filename:   report.Filename,
		Mode:       string(report.Mode),
		Upserted:   report.Upserted,
		Skipped:    report.Skipped,
		Failed:     len(report.Errors),
		StartedAt:  started.Unix(),
		FinishedAt: time.Now().Unix(),
	}
	if err := s.runs.Create(&run); err != nil {
		slog.Warn("failed to record import run", "component", "import", "error", err)
		return
	}
	report.RunID = run.ID
}

// importRow returns the outcome of one row. A returned error means the row
// was not written.
func (s *ImportService) importRow(ctx context.Context, row importer.Row, mode ImportMode) (string, error) {
	if !row.HasName() {
		return outcomeSkipped, nil
	}
	if row.Err != "" {
		return outcomeFailed, errors.New(row.Err)
	}

	incoming := row.Profile
	incoming.Name = strings.TrimSpace(incoming.Name)
	if incoming.FolderName != "" && !utils.IsSafeFolderName(incoming.FolderName) {
		incoming.FolderName = utils.SafeFolderName(incoming.FolderName)
	}

	outcome := outcomeSkipped
	_, err := s.profiles.commit(ctx, "import", func(ctx context.Context, tx database.DBTX) ([]change, error) {
		existing, err := database.FindProfileByName(ctx, tx, incoming.Name)
		if errors.Is(err, sql.ErrNoRows) {
			if incoming.FolderName == "" {
				incoming.FolderName = utils.SafeFolderName(incoming.Name)
			}
			id, err := database.InsertProfile(ctx, tx, &incoming)
			if err != nil {
				return nil, err
			}
			outcome = outcomeInserted
			return []change{{id: id}}, nil
		}
		if err != nil {
			return nil, err
		}

		if mode != ImportModeUpdate {
			return nil, nil
		}
		score := similarity.Score(existing.Name, incoming.Name)
		if !s.profiles.policy.AllowsImportUpdate(score) {
			return nil, nil
		}

		columns := updateColumns(&row, &incoming)
		for _, col := range columns {
			copyColumn(&existing, &incoming, col)
		}
		if len(columns) > 0 {
			if err := database.UpdateProfileColumns(ctx, tx, &existing, columns); err != nil {
				return nil, err
			}
		}
		outcome = outcomeUpdated
		return []change{{id: existing.ID}}, nil
	})
	if err != nil {
		return outcomeFailed, err
	}
	return outcome, nil
}

// updateColumns is the mapped subset of the updatable fields. An empty
// folder never overwrites the stored one.
func updateColumns(row *importer.Row, incoming *models.Profile) []string {
	var columns []string
	for _, col := range importer.UpdatableFields {
		if !row.Mapped(col) {
			continue
		}
		if col == "folder_name" && incoming.FolderName == "" {
			continue
		}
		columns = append(columns, col)
	}
	return columns
}

func copyColumn(dst, src *models.Profile, column string) {
	if column == "age" {
		dst.Age = src.Age
		return
	}
	if b := dst.BoolField(column); b != nil {
		*b = *src.BoolField(column)
		return
	}
	if t := dst.TextField(column); t != nil {
		*t = *src.TextField(column)
	}
}
