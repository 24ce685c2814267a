// Package ctm owns the Centroid x Track x Month aggregation bucket and the
// cross-centroid "epic" grouping derived from it (§3 CTM, GLOSSARY Epic).
// Neither is exclusively owned by a single component in §3's Ownership
// list, so this package is their shared read/write path. C8's CTM
// narrative refresh uses it (DueBuckets, DueForRefresh, RecordSummary);
// IncrementTitleCount and BuildEpics are not called by any pipeline stage.
package ctm

import "time"

// Bucket is one Centroid x Track x Month row (§3 CTM).
type Bucket struct {
	ID                  int64
	CentroidID          string
	Track               string
	Month               time.Time
	TitleCount          int
	IsFrozen            bool
	SummaryText         string
	EventCountAtSummary *int
	LastSummaryAt       *time.Time
}

// Epic is a cross-centroid grouping built from tag co-occurrence across
// Event Families in a month (GLOSSARY).
type Epic struct {
	ID          string
	Label       string
	Month       time.Time
	CentroidIDs []string
	CreatedAt   time.Time
}

// MonthStart truncates t to the first-of-month date the CTM/epic tables key
// on (§3 CTM "month (first-of-month date)").
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
