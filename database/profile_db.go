package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Tonisark/ActressManager/models"
)

const profilesTable = "profiles"

// ProfileName is the identity subset used by duplicate checks.
type ProfileName struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FolderRef links a profile to its media folder.
type FolderRef struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	FolderName string `json:"folder"`
}

// profileColumns returns every stored column, optionally qualified with an alias.
func profileColumns(alias string) []string {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	cols := make([]string, 0, len(models.CanonicalFields)+3)
	cols = append(cols, prefix+"id")
	for _, f := range models.CanonicalFields {
		cols = append(cols, prefix+f.Column)
	}
	return append(cols, prefix+"created_at", prefix+"updated_at")
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanProfile reads a row selected with profileColumns.
func scanProfile(row rowScanner) (models.Profile, error) {
	var p models.Profile
	var createdAt, updatedAt sql.NullInt64

	texts := make(map[string]*sql.NullString)
	var age sql.NullInt64
	bools := make(map[string]*sql.NullBool)

	dest := make([]any, 0, len(models.CanonicalFields)+3)
	dest = append(dest, &p.ID)
	for _, f := range models.CanonicalFields {
		switch f.Kind {
		case models.FieldInt:
			dest = append(dest, &age)
		case models.FieldBool:
			b := &sql.NullBool{}
			bools[f.Column] = b
			dest = append(dest, b)
		default:
			s := &sql.NullString{}
			texts[f.Column] = s
			dest = append(dest, s)
		}
	}
	dest = append(dest, &createdAt, &updatedAt)

	if err := row.Scan(dest...); err != nil {
		return models.Profile{}, err
	}

	for col, s := range texts {
		*p.TextField(col) = s.String
	}
	for col, b := range bools {
		*p.BoolField(col) = b.Bool
	}
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	p.CreatedAt = createdAt.Int64
	p.UpdatedAt = updatedAt.Int64
	return p, nil
}

func collectProfiles(rows *sql.Rows) ([]models.Profile, error) {
	defer rows.Close()
	profiles := []models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return profiles, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return profiles, fmt.Errorf("error iterating profile rows: %w", err)
	}
	return profiles, nil
}

// InsertProfile stores p and returns its new id. p.ID is ignored.
func InsertProfile(ctx context.Context, q DBTX, p *models.Profile) (int64, error) {
	now := time.Now().Unix()
	p.CreatedAt = now
	p.UpdatedAt = now

	columns := make([]string, 0, len(models.CanonicalFields)+2)
	values := make([]interface{}, 0, len(models.CanonicalFields)+2)
	for _, f := range models.CanonicalFields {
		columns = append(columns, f.Column)
		values = append(values, p.ColumnValue(f))
	}
	columns = append(columns, "created_at", "updated_at")
	values = append(values, now, now)

	queryBuilder := psql.Insert(profilesTable).
		Columns(columns...).
		Values(values...).
		Suffix("RETURNING id")
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for InsertProfile: %w", err)
	}
	var id int64
	if err := q.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to execute InsertProfile query for %s: %w", p.Name, err)
	}
	p.ID = id
	return id, nil
}

// GetProfileByID returns sql.ErrNoRows when the profile does not exist.
func GetProfileByID(ctx context.Context, q DBTX, id int64) (models.Profile, error) {
	queryBuilder := psql.Select(profileColumns("")...).
		From(profilesTable).
		Where(sq.Eq{"id": id}).
		Limit(1)
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to build SQL for GetProfileByID: %w", err)
	}
	p, err := scanProfile(q.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Profile{}, sql.ErrNoRows
		}
		return models.Profile{}, fmt.Errorf("failed to query or scan profile with ID %d: %w", id, err)
	}
	return p, nil
}

// GetProfilesByIDs returns the profiles that exist among ids, ordered by id.
func GetProfilesByIDs(ctx context.Context, q DBTX, ids []int64) ([]models.Profile, error) {
	if len(ids) == 0 {
		return []models.Profile{}, nil
	}
	sqlStr, args, err := psql.Select(profileColumns("")...).
		From(profilesTable).
		Where(sq.Eq{"id": ids}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for GetProfilesByIDs: %w", err)
	}
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute GetProfilesByIDs query: %w", err)
	}
	return collectProfiles(rows)
}

// FindProfileByName matches name case-insensitively and returns the lowest id
// on ties. sql.ErrNoRows means no match.
func FindProfileByName(ctx context.Context, q DBTX, name string) (models.Profile, error) {
	sqlStr, args, err := psql.Select(profileColumns("")...).
		From(profilesTable).
		Where("lower(name) = lower(?)", name).
		OrderBy("id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to build SQL for FindProfileByName: %w", err)
	}
	p, err := scanProfile(q.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Profile{}, sql.ErrNoRows
		}
		return models.Profile{}, fmt.Errorf("failed to query profile by name %q: %w", name, err)
	}
	return p, nil
}

// FindOtherProfileWithName returns the id of a profile other than excludeID
// whose name equals name case-insensitively, or 0.
func FindOtherProfileWithName(ctx context.Context, q DBTX, name string, excludeID int64) (int64, error) {
	sqlStr, args, err := psql.Select("id").
		From(profilesTable).
		Where("lower(name) = lower(?)", name).
		Where(sq.NotEq{"id": excludeID}).
		Limit(1).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for FindOtherProfileWithName: %w", err)
	}
	var id int64
	err = q.QueryRowContext(ctx, sqlStr, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to check duplicate name %q: %w", name, err)
	}
	return id, nil
}

// ListProfileNames returns every id and name ordered by name.
func ListProfileNames(ctx context.Context, q DBTX) ([]ProfileName, error) {
	sqlStr, args, err := psql.Select("id", "name").From(profilesTable).OrderBy("name ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListProfileNames: %w", err)
	}
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListProfileNames query: %w", err)
	}
	defer rows.Close()
	names := []ProfileName{}
	for rows.Next() {
		var n ProfileName
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			return names, fmt.Errorf("failed to scan profile name: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return names, fmt.Errorf("error iterating profile names: %w", err)
	}
	return names, nil
}

// ListFolderRefs returns id, name and folder for every profile.
func ListFolderRefs(ctx context.Context, q DBTX) ([]FolderRef, error) {
	sqlStr, args, err := psql.Select("id", "name", "folder_name").From(profilesTable).OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListFolderRefs: %w", err)
	}
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListFolderRefs query: %w", err)
	}
	defer rows.Close()
	refs := []FolderRef{}
	for rows.Next() {
		var ref FolderRef
		var folder sql.NullString
		if err := rows.Scan(&ref.ID, &ref.Name, &folder); err != nil {
			return refs, fmt.Errorf("failed to scan folder ref: %w", err)
		}
		ref.FolderName = folder.String
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return refs, fmt.Errorf("error iterating folder refs: %w", err)
	}
	return refs, nil
}

// UpdateProfile overwrites every canonical column of p.ID.
func UpdateProfile(ctx context.Context, q DBTX, p *models.Profile) error {
	return UpdateProfileColumns(ctx, q, p, nil)
}

// UpdateProfileColumns writes only the listed columns of p. A nil list
// writes every canonical column.
func UpdateProfileColumns(ctx context.Context, q DBTX, p *models.Profile, columns []string) error {
	now := time.Now().Unix()
	queryBuilder := psql.Update(profilesTable).Set("updated_at", now).Where(sq.Eq{"id": p.ID})

	if columns == nil {
		for _, f := range models.CanonicalFields {
			queryBuilder = queryBuilder.Set(f.Column, p.ColumnValue(f))
		}
	} else {
		for _, col := range columns {
			f, ok := models.FieldByColumn(col)
			if !ok {
				return fmt.Errorf("unknown profile column %q", col)
			}
			queryBuilder = queryBuilder.Set(f.Column, p.ColumnValue(f))
		}
	}

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for UpdateProfile: %w", err)
	}
	result, err := q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateProfile for ID %d: %w", p.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected == 0 {
		return sql.ErrNoRows
	}
	if err != nil {
		slog.Warn("could not get RowsAffected for UpdateProfile", "component", "database", "id", p.ID, "error", err)
	}
	p.UpdatedAt = now
	return nil
}

// UpdateStatus sets status on every id and returns the ids that exist.
func UpdateStatus(ctx context.Context, q DBTX, ids []int64, status string) ([]int64, error) {
	existing, err := existingIDs(ctx, q, ids)
	if err != nil || len(existing) == 0 {
		return existing, err
	}
	var value interface{}
	if status != "" {
		value = status
	}
	sqlStr, args, err := psql.Update(profilesTable).
		Set("status", value).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": existing}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for UpdateStatus: %w", err)
	}
	if _, err := q.ExecContext(ctx, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("failed to execute UpdateStatus: %w", err)
	}
	return existing, nil
}

// AppendDescription appends text to the description, treating NULL as empty.
func AppendDescription(ctx context.Context, q DBTX, id int64, text string) error {
	sqlStr, args, err := psql.Update(profilesTable).
		Set("description", sq.Expr("COALESCE(description, '') || ?", text)).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for AppendDescription: %w", err)
	}
	result, err := q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute AppendDescription for ID %d: %w", id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteProfile removes one profile row. The caller owns index removal.
func DeleteProfile(ctx context.Context, q DBTX, id int64) error {
	sqlStr, args, err := psql.Delete(profilesTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for DeleteProfile: %w", err)
	}
	result, err := q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteProfile for ID %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected == 0 {
		return sql.ErrNoRows
	}
	if err != nil {
		slog.Warn("could not get RowsAffected for DeleteProfile", "component", "database", "id", id, "error", err)
	}
	return nil
}

// CountProfiles returns the number of live profiles.
func CountProfiles(ctx context.Context, q DBTX) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+profilesTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return n, nil
}

func existingIDs(ctx context.Context, q DBTX, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	sqlStr, args, err := psql.Select("id").From(profilesTable).Where(sq.Eq{"id": ids}).OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for existingIDs: %w", err)
	}
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile ids: %w", err)
	}
	defer rows.Close()
	found := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return found, fmt.Errorf("failed to scan profile id: %w", err)
		}
		found = append(found, id)
	}
	if err := rows.Err(); err != nil {
		return found, fmt.Errorf("error iterating profile ids: %w", err)
	}
	return found, nil
}
