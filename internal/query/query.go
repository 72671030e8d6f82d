// Package query holds the list transforms the controller composes into its
// projection pipeline, plus the aggregate stats derivation. Transforms never
// mutate their input.
package query

import (
	"sort"
	"strings"

	"taskdeck/internal/task"
)

// Filter is a closed set of named list narrowings.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

func ParseFilter(s string) (Filter, bool) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterAll:
		return FilterAll, true
	case FilterActive:
		return FilterActive, true
	case FilterCompleted:
		return FilterCompleted, true
	}
	return "", false
}

// Apply returns the matching sublist in input order.
func (f Filter) Apply(items []*task.Item) []*task.Item {
	if f == FilterAll {
		return items
	}
	wantDone := f == FilterCompleted
	out := make([]*task.Item, 0, len(items))
	for _, it := range items {
		if it.Done == wantDone {
			out = append(out, it)
		}
	}
	return out
}

// Sort is a closed set of named orderings.
type Sort string

const (
	SortNewest   Sort = "newest"
	SortOldest   Sort = "oldest"
	SortPriority Sort = "priority"
)

func ParseSort(s string) (Sort, bool) {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case SortNewest:
		return SortNewest, true
	case SortOldest:
		return SortOldest, true
	case SortPriority:
		return SortPriority, true
	}
	return "", false
}

// Apply returns a new ordered copy. Equal keys keep their input order.
func (s Sort) Apply(items []*task.Item) []*task.Item {
	out := make([]*task.Item, len(items))
	copy(out, items)
	switch s {
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	case SortPriority:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Priority.Weight() > out[j].Priority.Weight() })
	}
	return out
}

// Search holds one lowercase-trimmed substring query.
type Search struct {
	query string
}

func (s *Search) Set(query string) {
	s.query = strings.ToLower(strings.TrimSpace(query))
}

func (s Search) Query() string {
	return s.query
}

// Apply with an empty query is the identity: same slice, same order.
func (s Search) Apply(items []*task.Item) []*task.Item {
	if s.query == "" {
		return items
	}
	out := make([]*task.Item, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Text), s.query) {
			out = append(out, it)
		}
	}
	return out
}

// Stats are the aggregate counts over the full collection.
type Stats struct {
	Total        int
	Active       int
	Completed    int
	HighPriority int // active and high, the "needs attention" number
}

// Count derives stats on demand; nothing is cached.
func Count(items []*task.Item) Stats {
	var st Stats
	st.Total = len(items)
	for _, it := range items {
		if it.Done {
			st.Completed++
			continue
		}
		st.Active++
		if it.Priority == task.PriorityHigh {
			st.HighPriority++
		}
	}
	return st
}
