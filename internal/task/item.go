package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ErrValidation marks a rejected mutation; callers branch with errors.Is.
var ErrValidation = errors.New("validation failed")

const maxTextLen = 500

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority returns false for anything outside the known set.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	}
	return "", false
}

// Weight orders priorities for sorting: high=3, medium=2, low=1.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// timeNow is swapped out in tests to drive a deterministic clock.
var timeNow = time.Now

// Item is a single task entry. Fields are exported for rendering and
// serialization; everything else mutates through the methods so the text
// invariant holds after every change.
type Item struct {
	ID        string
	Text      string
	Priority  Priority
	Done      bool
	CreatedAt int64 // millis since epoch
	UpdatedAt int64
}

// Record is the plain attribute form an Item round-trips through for
// persistence.
type Record struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Priority  string `json:"priority"`
	Done      bool   `json:"done"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

func validText(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: text is empty", ErrValidation)
	}
	if utf8.RuneCountInString(s) > maxTextLen {
		return "", fmt.Errorf("%w: text exceeds %d characters", ErrValidation, maxTextLen)
	}
	return s, nil
}

// New builds an item with a fresh id and timestamps. Text is validated
// strictly; an unknown priority silently falls back to medium.
func New(text, priority string) (*Item, error) {
	text, err := validText(text)
	if err != nil {
		return nil, err
	}
	p, ok := ParsePriority(priority)
	if !ok {
		p = PriorityMedium
	}
	now := timeNow().UnixMilli()
	return &Item{
		ID:        uuid.NewString(),
		Text:      text,
		Priority:  p,
		Done:      false,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// FromRecord rebuilds an item from its persisted attributes, applying the
// same validation as New. Missing id and timestamps are filled in.
func FromRecord(r Record) (*Item, error) {
	text, err := validText(r.Text)
	if err != nil {
		return nil, err
	}
	p, ok := ParsePriority(r.Priority)
	if !ok {
		p = PriorityMedium
	}
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	created := r.CreatedAt
	if created == 0 {
		created = timeNow().UnixMilli()
	}
	updated := r.UpdatedAt
	if updated == 0 {
		updated = created
	}
	return &Item{
		ID:        id,
		Text:      text,
		Priority:  p,
		Done:      r.Done,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

// Record returns the plain attribute form for persistence.
func (it *Item) Record() Record {
	return Record{
		ID:        it.ID,
		Text:      it.Text,
		Priority:  string(it.Priority),
		Done:      it.Done,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

// ToggleDone flips completion and bumps UpdatedAt.
func (it *Item) ToggleDone() {
	it.Done = !it.Done
	it.touch()
}

// UpdateText validates before committing; on failure the item is unchanged.
func (it *Item) UpdateText(text string) error {
	text, err := validText(text)
	if err != nil {
		return err
	}
	it.Text = text
	it.touch()
	return nil
}

// UpdatePriority rejects unknown values. Stricter than construction, which
// coerces to medium; that mismatch is long-standing observed behavior and is
// kept as-is.
func (it *Item) UpdatePriority(priority string) error {
	p, ok := ParsePriority(priority)
	if !ok {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, priority)
	}
	it.Priority = p
	it.touch()
	return nil
}

func (it *Item) touch() {
	it.UpdatedAt = timeNow().UnixMilli()
}
