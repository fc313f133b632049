// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

// Package stats computes aggregate statistics over a user's coffee
// entries. All aggregation happens over an already-fetched in-memory
// list; there are no dedicated queries.
package stats

import (
	"sort"
	"time"

	"codeberg.org/brewlog/brewlog/internal/models"
)

// TopSize is how many groups the top-rated and most-consumed lists hold.
const TopSize = 5

// GroupStat is the aggregate for one (name, brand) group.
type GroupStat struct {
	Name      string  `json:"name"`
	Brand     string  `json:"brand"`
	Count     int     `json:"count"`
	AvgRating float64 `json:"avg_rating"`
}

// Summary is the computed statistics block for one time range.
type Summary struct { //nolint:govet // fieldalignment not critical
	TotalEntries   int         `json:"total_entries"`
	TopRated       []GroupStat `json:"top_rated"`
	MostConsumed   []GroupStat `json:"most_consumed"`
	TopPreparation string      `json:"top_preparation"`
}

// Compute aggregates the entries created within the last `months` months
// (0 means all time), inclusive of now. Most-consumed orders by count
// descending with average rating descending as tie break; top-rated the
// other way around. The top preparation is the mode of the preparation
// field, first seen wins on ties.
func Compute(entries []models.Coffee, months int, now time.Time) Summary {
	var cutoff time.Time
	if months > 0 {
		cutoff = now.AddDate(0, -months, 0)
	}

	type group struct {
		GroupStat
		ratingSum int64
	}

	groups := make(map[string]*group)
	order := []string{} // first-seen order keeps ties deterministic

	prepCounts := make(map[string]int)
	prepOrder := []string{}

	total := 0
	for _, e := range entries {
		if e.CreatedAt.After(now) {
			continue
		}
		if months > 0 && e.CreatedAt.Before(cutoff) {
			continue
		}
		total++

		key := e.Name + "\x00" + e.Brand
		g, ok := groups[key]
		if !ok {
			g = &group{GroupStat: GroupStat{Name: e.Name, Brand: e.Brand}}
			groups[key] = g
			order = append(order, key)
		}
		g.Count++
		g.ratingSum += e.Rating
		g.AvgRating = float64(g.ratingSum) / float64(g.Count)

		if e.Preparation != "" {
			if _, seen := prepCounts[e.Preparation]; !seen {
				prepOrder = append(prepOrder, e.Preparation)
			}
			prepCounts[e.Preparation]++
		}
	}

	stats := make([]GroupStat, 0, len(order))
	for _, key := range order {
		stats = append(stats, groups[key].GroupStat)
	}

	return Summary{
		TotalEntries:   total,
		TopRated:       top(stats, byRating),
		MostConsumed:   top(stats, byCount),
		TopPreparation: mode(prepCounts, prepOrder),
	}
}

// byRating sorts by average rating descending, count descending.
func byRating(a, b GroupStat) bool {
	if a.AvgRating != b.AvgRating {
		return a.AvgRating > b.AvgRating
	}
	return a.Count > b.Count
}

// byCount sorts by count descending, average rating descending.
func byCount(a, b GroupStat) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	return a.AvgRating > b.AvgRating
}

func top(stats []GroupStat, less func(a, b GroupStat) bool) []GroupStat {
	sorted := make([]GroupStat, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })

	if len(sorted) > TopSize {
		sorted = sorted[:TopSize]
	}
	return sorted
}

// mode returns the most frequent preparation; the first-seen one wins
// on ties.
func mode(counts map[string]int, order []string) string {
	best := ""
	bestCount := 0
	for _, prep := range order {
		if counts[prep] > bestCount {
			best = prep
			bestCount = counts[prep]
		}
	}
	return best
}
