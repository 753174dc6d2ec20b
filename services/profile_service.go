package services

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Tonisark/ActressManager/config"
	"github.com/Tonisark/ActressManager/database"
	"github.com/Tonisark/ActressManager/logging"
	"github.com/Tonisark/ActressManager/media"
	"github.com/Tonisark/ActressManager/metrics"
	"github.com/Tonisark/ActressManager/models"
	"github.com/Tonisark/ActressManager/realtime"
	"github.com/Tonisark/ActressManager/similarity"
	"github.com/Tonisark/ActressManager/utils"
)

const (
	minAge = 18
	maxAge = 100

	tagCloudSize = 20
)

// ProfileService owns every profile mutation. Each one runs through commit,
// which keeps the search index in the same transaction as the record write.
type ProfileService struct {
	db       *sql.DB
	store    media.Store
	events   realtime.Publisher
	policy   similarity.Policy
	pageSize int

	deleteMediaOnRemove bool
}

// NewProfileService wires the service. A nil publisher discards events.
func NewProfileService(db *sql.DB, store media.Store, events realtime.Publisher, cfg config.Config) *ProfileService {
	if events == nil {
		events = realtime.Discard{}
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}
	return &ProfileService{
		db:                  db,
		store:               store,
		events:              events,
		policy:              similarity.PolicyFromConfig(cfg),
		pageSize:            pageSize,
		deleteMediaOnRemove: cfg.DeleteMediaOnRemove,
	}
}

// Policy returns the duplicate thresholds in use.
func (s *ProfileService) Policy() similarity.Policy { return s.policy }

// change is one profile touched by a record write.
type change struct {
	id      int64
	deleted bool
}

func changedIDs(changes []change) []int64 {
	ids := make([]int64, len(changes))
	for i, c := range changes {
		ids[i] = c.id
	}
	return ids
}

// commit runs fn in a transaction, then reindexes or removes every id fn
// reports before committing. An index failure rolls the whole write back.
func (s *ProfileService) commit(ctx context.Context, op string, fn func(ctx context.Context, tx database.DBTX) ([]change, error)) ([]change, error) {
	var changes []change
	var indexErr error

	err := database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx database.DBTX) error {
		var err error
		changes, err = fn(ctx, tx)
		if err != nil {
			return err
		}
		for _, c := range changes {
			if c.deleted {
				indexErr = database.RemoveFromIndex(ctx, tx, c.id)
			} else {
				indexErr = database.ReindexProfile(ctx, tx, c.id)
			}
			if indexErr != nil {
				return indexErr
			}
		}
		return nil
	})

	if err != nil {
		if indexErr != nil {
			metrics.IndexDesync()
			ids := changedIDs(changes)
			logging.WithFields(ctx, "component", "profiles", "op", op).
				Error("search index update failed, write rolled back", "ids", ids, "error", indexErr)
			return nil, &IndexDesyncError{IDs: ids, Err: indexErr}
		}
		return nil, err
	}

	metrics.ProfileMutation(op, len(changes))
	return changes, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *ProfileService) publish(eventType string, ids ...int64) {
	s.events.Broadcast(realtime.Event{Type: eventType, ProfileIDs: ids})
}

// validateProfile normalizes p in place and checks the form constraints.
func validateProfile(p *models.Profile) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	for _, f := range models.CanonicalFields {
		if f.MaxLen > 0 {
			if v := p.TextField(f.Column); v != nil && utf8.RuneCountInString(*v) > f.MaxLen {
				return &ValidationError{Field: f.Column, Message: fmt.Sprintf("must be at most %d characters", f.MaxLen)}
			}
		}
	}
	if p.Age != nil && (*p.Age < minAge || *p.Age > maxAge) {
		return &ValidationError{Field: "age", Message: fmt.Sprintf("must be between %d and %d", minAge, maxAge)}
	}
	for column := range models.EnumOptions {
		if v := p.TextField(column); v != nil && !models.IsAllowedOption(column, *v) {
			return &ValidationError{Field: column, Message: fmt.Sprintf("%q is not an allowed value", *v)}
		}
	}
	p.FolderName = strings.TrimSpace(p.FolderName)
	if p.FolderName != "" && !utils.IsSafeFolderName(p.FolderName) {
		return &ValidationError{Field: "folder_name", Message: "must not contain path separators or reserved characters"}
	}
	return nil
}

// CreateResult is returned by Create.
type CreateResult struct {
	Profile       models.Profile     `json:"profile"`
	Warnings      []DuplicateWarning `json:"warnings"`
	MediaWarnings []MediaWarning     `json:"media_warnings,omitempty"`
}

// Create adds a profile. An exact name match blocks with DuplicateError;
// close matches come back as warnings.
func (s *ProfileService) Create(ctx context.Context, p models.Profile) (*CreateResult, error) {
	if err := validateProfile(&p); err != nil {
		return nil, err
	}
	if p.FolderName == "" {
		p.FolderName = utils.SafeFolderName(p.Name)
	}

	warnings := []DuplicateWarning{}
	_, err := s.commit(ctx, "create", func(ctx context.Context, tx database.DBTX) ([]change, error) {
		names, err := database.ListProfileNames(ctx, tx)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			score := similarity.Score(p.Name, n.Name)
			if s.policy.IsExact(score) {
				return nil, &DuplicateError{ExistingID: n.ID, Name: n.Name}
			}
			if s.policy.IsWarning(score) {
				warnings = append(warnings, DuplicateWarning{ID: n.ID, Name: n.Name, Score: score})
			}
		}
		id, err := database.InsertProfile(ctx, tx, &p)
		if err != nil {
			return nil, err
		}
		return []change{{id: id}}, nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(warnings, func(i, j int) bool { return warnings[i].Score > warnings[j].Score })
	result := &CreateResult{Profile: p, Warnings: warnings}
	if err := s.store.Ensure(p.FolderName); err != nil {
		result.MediaWarnings = append(result.MediaWarnings, MediaWarning{Folder: p.FolderName, Op: "create", Err: err})
	}

	logging.WithFields(ctx, "component", "profiles").Info("profile created", "id", p.ID, "name", p.Name, "warnings", len(warnings))
	s.publish(realtime.EventProfileCreated, p.ID)
	return result, nil
}

// Get returns one profile or ErrNotFound.
func (s *ProfileService) Get(ctx context.Context, id int64) (models.Profile, error) {
	p, err := database.GetProfileByID(ctx, s.db, id)
	return p, notFound(err)
}

// UpdateResult is returned by Update.
type UpdateResult struct {
	Profile       models.Profile `json:"profile"`
	MediaWarnings []MediaWarning `json:"media_warnings,omitempty"`
}

// Update overwrites every field of profile id. A case-insensitive name clash
// with another profile blocks with DuplicateError. When the folder changes
// the media folder follows it.
func (s *ProfileService) Update(ctx context.Context, id int64, p models.Profile) (*UpdateResult, error) {
	if err := validateProfile(&p); err != nil {
		return nil, err
	}
	p.ID = id
	if p.FolderName == "" {
		p.FolderName = utils.SafeFolderName(p.Name)
	}

	var oldFolder string
	_, err := s.commit(ctx, "update", func(ctx context.Context, tx database.DBTX) ([]change, error) {
		current, err := database.GetProfileByID(ctx, tx, id)
		if err != nil {
			return nil, notFound(err)
		}
		otherID, err := database.FindOtherProfileWithName(ctx, tx, p.Name, id)
		if err != nil {
			return nil, err
		}
		if otherID != 0 {
			return nil, &DuplicateError{ExistingID: otherID, Name: p.Name}
		}
		oldFolder = current.FolderName
		p.CreatedAt = current.CreatedAt
		if err := database.UpdateProfile(ctx, tx, &p); err != nil {
			return nil, notFound(err)
		}
		return []change{{id: id}}, nil
	})
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{Profile: p}
	if oldFolder != "" && oldFolder != p.FolderName {
		if err := s.store.Rename(oldFolder, p.FolderName); err != nil {
			result.MediaWarnings = append(result.MediaWarnings, MediaWarning{Folder: oldFolder, Op: "rename", Err: err})
		}
	} else if err := s.store.Ensure(p.FolderName); err != nil {
		result.MediaWarnings = append(result.MediaWarnings, MediaWarning{Folder: p.FolderName, Op: "create", Err: err})
	}

	s.publish(realtime.EventProfileUpdated, id)
	return result, nil
}

// DeleteResult is returned by Delete.
type DeleteResult struct {
	ID            int64          `json:"id"`
	RecycledTo    string         `json:"recycled_to,omitempty"`
	MediaWarnings []MediaWarning `json:"media_warnings,omitempty"`
}

// Delete removes profile id. With recycle the media folder moves to the
// recycle bin; otherwise it is deleted only when configured to.
func (s *ProfileService) Delete(ctx context.Context, id int64, recycle bool) (*DeleteResult, error) {
	var folder string
	_, err := s.commit(ctx, "delete", func(ctx context.Context, tx database.DBTX) ([]change, error) {
		p, err := database.GetProfileByID(ctx, tx, id)
		if err != nil {
			return nil, notFound(err)
		}
		folder = p.FolderName
		if err := database.DeleteProfile(ctx, tx, id); err != nil {
			return nil, notFound(err)
		}
		return []change{{id: id, deleted: true}}, nil
	})
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{ID: id}
	if folder != "" {
		switch {
		case recycle:
			dest, err := s.store.Recycle(folder)
			if err != nil {
				result.MediaWarnings = append(result.MediaWarnings, MediaWarning{Folder: folder, Op: "recycle", Err: err})
			}
			result.RecycledTo = dest
		case s.deleteMediaOnRemove:
			if err := s.store.Remove(folder); err != nil {
				result.MediaWarnings = append(result.MediaWarnings, MediaWarning{Folder: folder, Op: "remove", Err: err})
			}
		}
	}

	s.publish(realtime.EventProfileDeleted, id)
	return result, nil
}

// BulkResult reports which ids a bulk action touched.
type BulkResult struct {
	Affected []int64 `json:"affected"`
	Missing  []int64 `json:"missing"`
}

func missingIDs(requested, found []int64) []int64 {
	seen := make(map[int64]struct{}, len(found))
	for _, id := range found {
		seen[id] = struct{}{}
	}
	missing := []int64{}
	for _, id := range requested {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
			seen[id] = struct{}{}
		}
	}
	return missing
}

// BulkDelete removes every existing id in one transaction. Media folders
// are left in place.
func (s *ProfileService) BulkDelete(ctx context.Context, ids []int64) (*BulkResult, error) {
	if len(ids) == 0 {
		return nil, &ValidationError{Field: "ids", Message: "no profiles selected"}
	}
	changes, err := s.commit(ctx, "bulk_delete", func(ctx context.Context, tx database.DBTX) ([]change, error) {
		existing, err := database.GetProfilesByIDs(ctx, tx, ids)
		if err != nil {
			return nil, err
		}
		changes := make([]change, 0, len(existing))
		for _, p := range existing {
			if err := database.DeleteProfile(ctx, tx, p.ID); err != nil {
				return nil, err
			}
			changes = append(changes, change{id: p.ID, deleted: true})
		}
		return changes, nil
	})
	if err != nil {
		return nil, err
	}
	affected := changedIDs(changes)
	if len(affected) > 0 {
		s.publish(realtime.EventProfileDeleted, affected...)
	}
	return &BulkResult{Affected: affected, Missing: missingIDs(ids, affected)}, nil
}

// BulkStatus sets status on every existing id in one transaction.
func (s *ProfileService) BulkStatus(ctx context.Context, ids []int64, status string) (*BulkResult, error) {
	if len(ids) == 0 {
		return nil, &ValidationError{Field: "ids", Message: "no profiles selected"}
	}
	status = strings.TrimSpace(status)
	if !models.IsAllowedOption("status", status) {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("%q is not an allowed value", status)}
	}
	changes, err := s.commit(ctx, "bulk_status", func(ctx context.Context, tx database.DBTX) ([]change, error) {
		updated, err := database.UpdateStatus(ctx, tx, ids, status)
		if err != nil {
			return nil, err
		}
		changes := make([]change, len(updated))
		for i, id := range updated {
			changes[i] = change{id: id}
		}
		return changes, nil
	})
	if err != nil {
		return nil, err
	}
	affected := changedIDs(changes)
	if len(affected) > 0 {
		s.events.Broadcast(realtime.Event{Type: realtime.EventProfileUpdated, ProfileIDs: affected, Status: status})
	}
	return &BulkResult{Affected: affected, Missing: missingIDs(ids, affected)}, nil
}

// MergeResult is returned by Merge.
type MergeResult struct {
	Profile       models.Profile `json:"profile"`
	DeletedID     int64          `json:"deleted_id"`
	MediaWarnings []MediaWarning `json:"media_warnings,omitempty"`
}

// Merge fills the empty fields of keepID from removeID, deletes removeID and
// moves its media into the kept folder.
func (s *ProfileService) Merge(ctx context.Context, keepID, removeID int64) (*MergeResult, error) {
	if keepID == removeID {
		return nil, &ValidationError{Field: "id", Message: "cannot merge a profile with itself"}
	}

	var kept, removed models.Profile
	_, err := s.commit(ctx, "merge", func(ctx context.Context, tx database.DBTX) ([]change, error) {
		var err error
		if kept, err = database.GetProfileByID(ctx, tx, keepID); err != nil {
			return nil, notFound(err)
		}
		if removed, err = database.GetProfileByID(ctx, tx, removeID); err != nil {
			return nil, notFound(err)
		}
		kept.FillGapsFrom(&removed)
		if err := database.UpdateProfile(ctx, tx, &kept); err != nil {
			return nil, err
		}
		if err := database.DeleteProfile(ctx, tx, removeID); err != nil {
			return nil, err
		}
		return []change{{id: keepID}, {id: removeID, deleted: true}}, nil
	})
	if err != nil {
		return nil, err
	}

	result := &MergeResult{Profile: kept, DeletedID: removeID}
	if removed.FolderName != "" && kept.FolderName != "" && removed.FolderName != kept.FolderName {
		if err := s.store.MergeInto(removed.FolderName, kept.FolderName); err != nil {
			result.MediaWarnings = append(result.MediaWarnings, MediaWarning{Folder: removed.FolderName, Op: "merge", Err: err})
		}
	}

	logging.WithFields(ctx, "component", "profiles").Info("profiles merged", "kept", keepID, "removed", removeID)
	s.publish(realtime.EventProfilesMerged, keepID, removeID)
	return result, nil
}

// MergeCandidate is a pair of profiles with similar names.
type MergeCandidate struct {
	ID1   int64  `json:"id1"`
	Name1 string `json:"name1"`
	ID2   int64  `json:"id2"`
	Name2 string `json:"name2"`
	Score int    `json:"score"`
}

// MergeCandidates compares every pair of names. The scan is quadratic in the
// number of profiles and stops when ctx is cancelled.
func (s *ProfileService) MergeCandidates(ctx context.Context) ([]MergeCandidate, error) {
	names, err := database.ListProfileNames(ctx, s.db)
	if err != nil {
		return nil, err
	}
	candidates := []MergeCandidate{}
	for i := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < len(names); j++ {
			score := similarity.Score(names[i].Name, names[j].Name)
			if s.policy.IsMergeCandidate(score) {
				candidates = append(candidates, MergeCandidate{
					ID1: names[i].ID, Name1: names[i].Name,
					ID2: names[j].ID, Name2: names[j].Name,
					Score: score,
				})
			}
		}
	}
	return candidates, nil
}

// AppendSocialSync appends a timestamped stats block to the description.
func (s *ProfileService) AppendSocialSync(ctx context.Context, id int64, stats map[string]interface{}) (models.Profile, error) {
	if len(stats) == 0 {
		return models.Profile{}, &ValidationError{Field: "stats", Message: "no stats to append"}
	}
	encoded, err := json.Marshal(stats)
	if err != nil {
		return models.Profile{}, &ValidationError{Field: "stats", Message: err.Error()}
	}
	block := fmt.Sprintf("\n\nSocial Sync %s: %s", time.Now().Format("2006-01-02 15:04:05"), encoded)

	_, err = s.commit(ctx, "social_sync", func(ctx context.Context, tx database.DBTX) ([]change, error) {
		if err := database.AppendDescription(ctx, tx, id, block); err != nil {
			return nil, notFound(err)
		}
		return []change{{id: id}}, nil
	})
	if err != nil {
		return models.Profile{}, err
	}
	s.publish(realtime.EventProfileUpdated, id)
	return s.Get(ctx, id)
}

// SetThumbnail stores an uploaded image as the profile thumbnail and marks
// the profile as having pictures.
func (s *ProfileService) SetThumbnail(ctx context.Context, id int64, upload io.Reader) (models.Profile, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return p, err
	}
	folder := p.FolderName
	if folder == "" {
		folder = utils.SafeFolderName(p.Name)
	}
	if _, err := s.store.SaveThumbnail(folder, upload); err != nil {
		if errors.Is(err, media.ErrInvalidImage) {
			return p, &ValidationError{Field: "thumbnail", Message: "file is not a supported image"}
		}
		return p, fmt.Errorf("failed to save thumbnail for profile %d: %w", id, err)
	}

	p.FolderName = folder
	p.HasPictures = true
	_, err = s.commit(ctx, "thumbnail", func(ctx context.Context, tx database.DBTX) ([]change, error) {
		if err := database.UpdateProfileColumns(ctx, tx, &p, []string{"folder_name", "has_pictures"}); err != nil {
			return nil, notFound(err)
		}
		return []change{{id: id}}, nil
	})
	if err != nil {
		return p, err
	}
	s.publish(realtime.EventProfileUpdated, id)
	return p, nil
}

// Gallery lists the images in the profile's media folder.
func (s *ProfileService) Gallery(ctx context.Context, id int64) ([]media.GalleryImage, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.FolderName == "" {
		return []media.GalleryImage{}, nil
	}
	images, err := s.store.ListImages(p.FolderName)
	if errors.Is(err, os.ErrNotExist) {
		return []media.GalleryImage{}, nil
	}
	return images, err
}

// ScanMissing returns the profiles without a media folder or thumbnail.
func (s *ProfileService) ScanMissing(ctx context.Context) ([]database.FolderRef, error) {
	refs, err := database.ListFolderRefs(ctx, s.db)
	if err != nil {
		return nil, err
	}
	missing := []database.FolderRef{}
	for _, ref := range refs {
		if ref.FolderName == "" {
			missing = append(missing, ref)
			continue
		}
		if _, ok := s.store.ThumbnailPath(ref.FolderName); !ok {
			missing = append(missing, ref)
		}
	}
	return missing, nil
}

// RebuildIndex repopulates the search index from the profiles table.
func (s *ProfileService) RebuildIndex(ctx context.Context) (int, error) {
	var n int
	err := database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx database.DBTX) error {
		var err error
		n, err = database.RebuildSearchIndex(ctx, tx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to rebuild search index: %w", err)
	}
	metrics.IndexRebuild()
	slog.Info("search index rebuilt", "component", "profiles", "entries", n)
	s.events.Broadcast(realtime.Event{Type: realtime.EventIndexRebuilt, Extra: map[string]interface{}{"entries": n}})
	return n, nil
}

// CheckIndex reports ids whose index entry is missing or orphaned.
func (s *ProfileService) CheckIndex(ctx context.Context) (database.IndexDrift, error) {
	return database.FindIndexDrift(ctx, s.db)
}

// List runs a filtered, paginated query.
func (s *ProfileService) List(ctx context.Context, f database.ProfileFilter) (database.ProfilePage, error) {
	if f.PageSize <= 0 {
		f.PageSize = s.pageSize
	}
	defer metrics.ObserveQuery("list", time.Now())
	return database.ListProfiles(ctx, s.db, f)
}

// ExportCSV writes every profile matching f with the canonical headers.
func (s *ProfileService) ExportCSV(ctx context.Context, w io.Writer, f database.ProfileFilter) (int, error) {
	profiles, err := database.ListAllProfiles(ctx, s.db, f)
	if err != nil {
		return 0, err
	}
	cw := csv.NewWriter(w)
	header := make([]string, len(models.CanonicalFields))
	for i, field := range models.CanonicalFields {
		header[i] = field.Header
	}
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}
	record := make([]string, len(models.CanonicalFields))
	for _, p := range profiles {
		for i, field := range models.CanonicalFields {
			record[i] = exportCell(&p, field)
		}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("failed to write csv row for profile %d: %w", p.ID, err)
		}
	}
	cw.Flush()
	return len(profiles), cw.Error()
}

func exportCell(p *models.Profile, f models.Field) string {
	switch f.Kind {
	case models.FieldInt:
		if p.Age == nil {
			return ""
		}
		return strconv.Itoa(*p.Age)
	case models.FieldBool:
		if b := p.BoolField(f.Column); b != nil && *b {
			return "1"
		}
		return "0"
	default:
		if v := p.TextField(f.Column); v != nil {
			return *v
		}
		return ""
	}
}

// ExportJSON writes every profile matching f as an indented JSON array.
func (s *ProfileService) ExportJSON(ctx context.Context, w io.Writer, f database.ProfileFilter) (int, error) {
	profiles, err := database.ListAllProfiles(ctx, s.db, f)
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(profiles); err != nil {
		return 0, fmt.Errorf("failed to encode profiles: %w", err)
	}
	return len(profiles), nil
}

// Dashboard returns the attribute distributions.
func (s *ProfileService) Dashboard(ctx context.Context) (database.DashboardStats, error) {
	return database.GetDashboardStats(ctx, s.db)
}

// TagCloud returns the most used tags.
func (s *ProfileService) TagCloud(ctx context.Context) ([]database.TagCount, error) {
	return database.GetTagCloud(ctx, s.db, tagCloudSize)
}
