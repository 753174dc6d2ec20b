package database

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/Tonisark/ActressManager/models"
)

const defaultPageSize = 20

// strippedHeight removes feet/inch quote marks from the free-text height.
const strippedHeight = `TRIM(REPLACE(REPLACE(p.height, '''', ''), '"', ''))`

// heightExpr casts the stripped height. 5'6" becomes 56. Text that does not
// start with a digit is NULL, so it never matches a height range.
const heightExpr = `CASE WHEN ` + strippedHeight + ` GLOB '[0-9]*' THEN CAST(` + strippedHeight + ` AS INTEGER) END`

// ProfileFilter holds the optional list criteria. Zero values mean "no filter".
type ProfileFilter struct {
	Query              string
	Status             string
	Ethnicity          string
	OccupationCategory string
	Tag                string
	AgeMin             *int
	AgeMax             *int
	HeightMin          *int
	HeightMax          *int
	SortBy             string
	Page               int
	PageSize           int
}

// ProfilePage is one page of list results.
type ProfilePage struct {
	Items      []models.Profile `json:"items"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// BuildMatchExpression turns free text into an FTS5 query where every
// whitespace-delimited term is a quoted prefix match. Blank input yields "".
func BuildMatchExpression(query string) string {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return ""
	}
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		parts = append(parts, `"`+strings.ReplaceAll(term, `"`, `""`)+`"*`)
	}
	return strings.Join(parts, " ")
}

// applyProfileFilter adds the FTS join and every WHERE clause of f.
func applyProfileFilter(sb sq.SelectBuilder, f ProfileFilter) sq.SelectBuilder {
	if match := BuildMatchExpression(f.Query); match != "" {
		sb = sb.Join(fmt.Sprintf("%s ON %s.rowid = p.id", models.SearchTableName, models.SearchTableName)).
			Where(models.SearchTableName+" MATCH ?", match)
	}
	if f.Status != "" {
		sb = sb.Where(sq.Eq{"p.status": f.Status})
	}
	if f.Ethnicity != "" {
		sb = sb.Where(sq.Eq{"p.ethnicity": f.Ethnicity})
	}
	if f.OccupationCategory != "" {
		sb = sb.Where(sq.Eq{"p.occupation_category": f.OccupationCategory})
	}
	if f.Tag != "" {
		sb = sb.Where(`p.tags LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(f.Tag)+"%")
	}
	if f.AgeMin != nil {
		sb = sb.Where(sq.And{sq.NotEq{"p.age": nil}, sq.GtOrEq{"p.age": *f.AgeMin}})
	}
	if f.AgeMax != nil {
		sb = sb.Where(sq.And{sq.NotEq{"p.age": nil}, sq.LtOrEq{"p.age": *f.AgeMax}})
	}
	if f.HeightMin != nil {
		sb = sb.Where(heightExpr+" >= ?", *f.HeightMin)
	}
	if f.HeightMax != nil {
		sb = sb.Where(heightExpr+" <= ?", *f.HeightMax)
	}
	return sb
}

func orderedProfileQuery(f ProfileFilter) sq.SelectBuilder {
	sortBy := NormalizeSortOrder(f.SortBy)
	sb := psql.Select(profileColumns("p")...).From(profilesTable + " p")
	return applyProfileFilter(sb, f).OrderBy(fmt.Sprintf("p.%s COLLATE NOCASE", sortBy), "p.id ASC")
}

// CountProfilesMatching returns the number of profiles matching f, ignoring pagination.
func CountProfilesMatching(ctx context.Context, q DBTX, f ProfileFilter) (int, error) {
	sb := applyProfileFilter(psql.Select("COUNT(*)").From(profilesTable+" p"), f)
	sqlStr, args, err := sb.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for CountProfilesMatching: %w", err)
	}
	var total int
	if err := q.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count matching profiles: %w", err)
	}
	return total, nil
}

// ListProfiles returns one page of profiles matching f plus the total match
// count. Page is 1-based; pages past the end are empty.
func ListProfiles(ctx context.Context, q DBTX, f ProfileFilter) (ProfilePage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}

	total, err := CountProfilesMatching(ctx, q, f)
	if err != nil {
		return ProfilePage{}, err
	}

	totalPages := total / f.PageSize
	if total%f.PageSize != 0 {
		totalPages++
	}
	page := ProfilePage{
		Items:      []models.Profile{},
		Page:       f.Page,
		PageSize:   f.PageSize,
		Total:      total,
		TotalPages: totalPages,
	}
	// past the end; checked before the offset multiply so it cannot overflow
	if f.Page > totalPages {
		return page, nil
	}

	offset := (f.Page - 1) * f.PageSize
	sqlStr, args, err := orderedProfileQuery(f).
		Limit(uint64(f.PageSize)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return ProfilePage{}, fmt.Errorf("failed to build SQL for ListProfiles: %w", err)
	}
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return ProfilePage{}, fmt.Errorf("failed to execute ListProfiles query: %w", err)
	}
	items, err := collectProfiles(rows)
	if err != nil {
		return ProfilePage{}, err
	}

	page.Items = items
	return page, nil
}

// ListAllProfiles returns every profile matching f in sort order, without
// pagination. Export uses it.
func ListAllProfiles(ctx context.Context, q DBTX, f ProfileFilter) ([]models.Profile, error) {
	sqlStr, args, err := orderedProfileQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListAllProfiles: %w", err)
	}
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListAllProfiles query: %w", err)
	}
	return collectProfiles(rows)
}
