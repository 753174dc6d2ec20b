package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// LabelCount is one bucket of a categorical distribution.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AgeCount is one bucket of the age distribution.
type AgeCount struct {
	Age   int `json:"age"`
	Count int `json:"count"`
}

// DashboardStats summarizes the catalog for the dashboard view.
type DashboardStats struct {
	Total              int          `json:"total"`
	Ages               []AgeCount   `json:"ages"`
	Ethnicity          []LabelCount `json:"ethnicity"`
	OccupationCategory []LabelCount `json:"occupation_category"`
	Status             []LabelCount `json:"status"`
}

// TagCount is one entry of the tag cloud.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// GetDashboardStats computes the age and categorical distributions.
func GetDashboardStats(ctx context.Context, q DBTX) (DashboardStats, error) {
	var stats DashboardStats
	var err error

	if stats.Total, err = CountProfiles(ctx, q); err != nil {
		return stats, err
	}

	sqlStr, args, err := psql.Select("age", "COUNT(*)").
		From(profilesTable).
		Where("age IS NOT NULL").
		GroupBy("age").
		OrderBy("age").
		ToSql()
	if err != nil {
		return stats, fmt.Errorf("failed to build SQL for age distribution: %w", err)
	}
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return stats, fmt.Errorf("failed to query age distribution: %w", err)
	}
	stats.Ages = []AgeCount{}
	for rows.Next() {
		var a AgeCount
		if err := rows.Scan(&a.Age, &a.Count); err != nil {
			rows.Close()
			return stats, fmt.Errorf("failed to scan age bucket: %w", err)
		}
		stats.Ages = append(stats.Ages, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("error iterating age buckets: %w", err)
	}

	if stats.Ethnicity, err = distribution(ctx, q, "ethnicity"); err != nil {
		return stats, err
	}
	if stats.OccupationCategory, err = distribution(ctx, q, "occupation_category"); err != nil {
		return stats, err
	}
	if stats.Status, err = distribution(ctx, q, "status"); err != nil {
		return stats, err
	}
	return stats, nil
}

// distribution counts non-null values of a fixed column name.
func distribution(ctx context.Context, q DBTX, column string) ([]LabelCount, error) {
	sqlStr, args, err := psql.Select(column, "COUNT(*)").
		From(profilesTable).
		Where(column + " IS NOT NULL").
		GroupBy(column).
		OrderBy("COUNT(*) DESC", column+" ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for %s distribution: %w", column, err)
	}
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s distribution: %w", column, err)
	}
	defer rows.Close()
	out := []LabelCount{}
	for rows.Next() {
		var lc LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return out, fmt.Errorf("failed to scan %s bucket: %w", column, err)
		}
		out = append(out, lc)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("error iterating %s buckets: %w", column, err)
	}
	return out, nil
}

// GetTagCloud returns the most frequent "#tag" tokens across all profiles,
// most frequent first. Ties keep first-seen order.
func GetTagCloud(ctx context.Context, q DBTX, limit int) ([]TagCount, error) {
	rows, err := q.QueryContext(ctx, "SELECT tags FROM "+profilesTable+" WHERE tags IS NOT NULL AND tags != '' ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	var all []string
	for rows.Next() {
		var tags sql.NullString
		if err := rows.Scan(&tags); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan tags: %w", err)
		}
		all = append(all, tags.String)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return CountTags(all, limit), nil
}

// CountTags tallies "#tag" words. Surrounding '#', ',', '.' and spaces are
// trimmed from each word before counting.
func CountTags(texts []string, limit int) []TagCount {
	counts := map[string]int{}
	var order []string
	for _, text := range texts {
		for _, word := range strings.Fields(text) {
			if !strings.HasPrefix(word, "#") || len(word) < 2 {
				continue
			}
			tag := strings.Trim(word, "#, .")
			if tag == "" {
				continue
			}
			if _, seen := counts[tag]; !seen {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	out := make([]TagCount, 0, len(order))
	for _, tag := range order {
		out = append(out, TagCount{Tag: tag, Count: counts[tag]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
