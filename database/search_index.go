package database

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Tonisark/ActressManager/models"
)

// SearchEntry is the shadow copy of a profile's searchable text.
type SearchEntry struct {
	ID          int64
	Name        string
	Aka         string
	Description string
	Tags        string
	Profession  string
	Specialties string
}

// ReindexProfile overwrites the shadow entry for id from the current profile
// row. When the profile no longer exists the entry is simply removed.
func ReindexProfile(ctx context.Context, q DBTX, id int64) error {
	if err := RemoveFromIndex(ctx, q, id); err != nil {
		return err
	}

	source := psql.Select(append([]string{"id"}, models.SearchColumns...)...).
		From(profilesTable).
		Where(sq.Eq{"id": id})
	sqlStr, args, err := psql.Insert(models.SearchTableName).
		Columns(append([]string{"rowid"}, models.SearchColumns...)...).
		Select(source).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for ReindexProfile: %w", err)
	}
	if _, err := q.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to reindex profile %d: %w", id, err)
	}
	return nil
}

// RemoveFromIndex deletes the shadow entry for id. Removing a missing entry
// is not an error.
func RemoveFromIndex(ctx context.Context, q DBTX, id int64) error {
	sqlStr, args, err := psql.Delete(models.SearchTableName).Where(sq.Eq{"rowid": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for RemoveFromIndex: %w", err)
	}
	if _, err := q.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to remove profile %d from search index: %w", id, err)
	}
	return nil
}

// RebuildSearchIndex recomputes every shadow entry from scratch and returns
// the number of indexed profiles.
func RebuildSearchIndex(ctx context.Context, q DBTX) (int, error) {
	if _, err := q.ExecContext(ctx, "DELETE FROM "+models.SearchTableName); err != nil {
		return 0, fmt.Errorf("failed to clear search index: %w", err)
	}

	source := psql.Select(append([]string{"id"}, models.SearchColumns...)...).From(profilesTable)
	sqlStr, args, err := psql.Insert(models.SearchTableName).
		Columns(append([]string{"rowid"}, models.SearchColumns...)...).
		Select(source).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for RebuildSearchIndex: %w", err)
	}
	if _, err := q.ExecContext(ctx, sqlStr, args...); err != nil {
		return 0, fmt.Errorf("failed to repopulate search index: %w", err)
	}
	return CountProfiles(ctx, q)
}

// GetSearchEntry reads the shadow entry for id, sql.ErrNoRows when absent.
func GetSearchEntry(ctx context.Context, q DBTX, id int64) (SearchEntry, error) {
	sqlStr, args, err := psql.Select(append([]string{"rowid"}, models.SearchColumns...)...).
		From(models.SearchTableName).
		Where(sq.Eq{"rowid": id}).
		ToSql()
	if err != nil {
		return SearchEntry{}, fmt.Errorf("failed to build SQL for GetSearchEntry: %w", err)
	}
	var e SearchEntry
	var name, aka, desc, tags, profession, specialties sql.NullString
	err = q.QueryRowContext(ctx, sqlStr, args...).Scan(&e.ID, &name, &aka, &desc, &tags, &profession, &specialties)
	if err != nil {
		if err == sql.ErrNoRows {
			return SearchEntry{}, sql.ErrNoRows
		}
		return SearchEntry{}, fmt.Errorf("failed to read search entry %d: %w", id, err)
	}
	e.Name, e.Aka, e.Description = name.String, aka.String, desc.String
	e.Tags, e.Profession, e.Specialties = tags.String, profession.String, specialties.String
	return e, nil
}

// IndexDrift describes rows where the record store and the shadow index disagree.
type IndexDrift struct {
	Missing  []int64 `json:"missing"`  // live profiles without a shadow entry
	Orphaned []int64 `json:"orphaned"` // shadow entries without a profile
}

// Clean reports whether the index matches the store.
func (d IndexDrift) Clean() bool {
	return len(d.Missing) == 0 && len(d.Orphaned) == 0
}

// FindIndexDrift compares ids between the store and the index. Content is
// not compared; RebuildSearchIndex fixes both kinds of drift.
func FindIndexDrift(ctx context.Context, q DBTX) (IndexDrift, error) {
	drift := IndexDrift{Missing: []int64{}, Orphaned: []int64{}}

	missing, err := queryIDs(ctx, q, fmt.Sprintf(
		"SELECT p.id FROM %s p WHERE NOT EXISTS (SELECT 1 FROM %s f WHERE f.rowid = p.id) ORDER BY p.id",
		profilesTable, models.SearchTableName))
	if err != nil {
		return drift, err
	}
	orphaned, err := queryIDs(ctx, q, fmt.Sprintf(
		"SELECT f.rowid FROM %s f WHERE NOT EXISTS (SELECT 1 FROM %s p WHERE p.id = f.rowid) ORDER BY f.rowid",
		models.SearchTableName, profilesTable))
	if err != nil {
		return drift, err
	}
	drift.Missing = append(drift.Missing, missing...)
	drift.Orphaned = append(drift.Orphaned, orphaned...)
	return drift, nil
}

func queryIDs(ctx context.Context, q DBTX, query string) ([]int64, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query index drift: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return ids, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return ids, fmt.Errorf("error iterating ids: %w", err)
	}
	return ids, nil
}
