package ctm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGroupByTagOverlap_MergesOnSharedTags(t *testing.T) {
	efs := []efTagRow{
		{id: "ef-1", tags: []string{"sanctions", "energy", "europe"}},
		{id: "ef-2", tags: []string{"sanctions", "energy", "asia"}},
		{id: "ef-3", tags: []string{"trade", "tariffs", "asia"}},
	}

	groups := groupByTagOverlap(efs, 2)

	assert.Len(t, groups, 1)
	assert.ElementsMatch(t, []string{"ef-1", "ef-2"}, groups[0].ids)
}

func TestGroupByTagOverlap_SingletonsDropped(t *testing.T) {
	efs := []efTagRow{
		{id: "ef-1", tags: []string{"sanctions", "energy"}},
		{id: "ef-2", tags: []string{"trade", "tariffs"}},
	}

	groups := groupByTagOverlap(efs, 2)

	assert.Empty(t, groups)
}

func TestDueForRefresh_NeverSummarized(t *testing.T) {
	b := &Bucket{TitleCount: 5}
	assert.True(t, DueForRefresh(b, 20, 24))
}

func TestDueForRefresh_GrownButTooRecent(t *testing.T) {
	count := 10
	recent := time.Now().Add(-1 * time.Hour)
	b := &Bucket{TitleCount: 40, EventCountAtSummary: &count, LastSummaryAt: &recent}
	assert.False(t, DueForRefresh(b, 20, 24))
}

func TestDueForRefresh_GrownAndAged(t *testing.T) {
	count := 10
	old := time.Now().Add(-48 * time.Hour)
	b := &Bucket{TitleCount: 40, EventCountAtSummary: &count, LastSummaryAt: &old}
	assert.True(t, DueForRefresh(b, 20, 24))
}

func TestMonthStart(t *testing.T) {
	got := MonthStart(time.Date(2026, 3, 17, 12, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), got)
}
