package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tonisark/ActressManager/models"
)

func TestCountTags(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		limit int
		want  []TagCount
	}{
		{
			name:  "counts and orders by frequency",
			texts: []string{"#blonde #tall", "#tall, #petite.", "#tall"},
			want:  []TagCount{{"tall", 3}, {"blonde", 1}, {"petite", 1}},
		},
		{
			name:  "ignores words without hash and lone hashes",
			texts: []string{"blonde # #, ## #x"},
			want:  []TagCount{{"x", 1}},
		},
		{
			name:  "limit truncates",
			texts: []string{"#a #b #b #c #c #c"},
			limit: 2,
			want:  []TagCount{{"c", 3}, {"b", 2}},
		},
		{
			name:  "no tags",
			texts: []string{"", "plain text"},
			want:  []TagCount{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountTags(tt.texts, tt.limit))
		})
	}
}

func TestGetDashboardStats(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	seedProfile(t, db, models.Profile{Name: "A", Age: intPtr(25), Ethnicity: "Latina", Status: "Active"})
	seedProfile(t, db, models.Profile{Name: "B", Age: intPtr(25), Ethnicity: "Asian", Status: "Active"})
	seedProfile(t, db, models.Profile{Name: "C", Age: intPtr(31), Ethnicity: "Latina", OccupationCategory: "Model"})
	seedProfile(t, db, models.Profile{Name: "D"})

	stats, err := GetDashboardStats(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, []AgeCount{{Age: 25, Count: 2}, {Age: 31, Count: 1}}, stats.Ages)
	assert.Equal(t, []LabelCount{{"Latina", 2}, {"Asian", 1}}, stats.Ethnicity)
	assert.Equal(t, []LabelCount{{"Model", 1}}, stats.OccupationCategory)
	assert.Equal(t, []LabelCount{{"Active", 2}}, stats.Status)
}

func TestGetTagCloud(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	seedProfile(t, db, models.Profile{Name: "A", Tags: "#red #blue"})
	seedProfile(t, db, models.Profile{Name: "B", Tags: "#blue"})
	seedProfile(t, db, models.Profile{Name: "C"})

	cloud, err := GetTagCloud(ctx, db, 10)
	require.NoError(t, err)
	assert.Equal(t, []TagCount{{"blue", 2}, {"red", 1}}, cloud)
}
