package ui

import (
	"taskdeck/internal/app"
	"taskdeck/internal/query"
	"taskdeck/internal/task"
)

type notice struct {
	severity app.Severity
	text     string
	seq      int
}

// State is the render surface between the controller and the bubbletea
// model. The controller writes into it synchronously while handling an
// intent; the model reads it when building the next frame. It doubles as the
// edit-session collaborator: an edit intent parks the item here until the
// model picks it up and opens the modal.
type State struct {
	items   []*task.Item
	stats   query.Stats
	notice  notice
	pending *task.Item
}

func NewState() *State {
	return &State{}
}

func (s *State) RenderList(items []*task.Item) {
	s.items = items
}

func (s *State) RenderStats(stats query.Stats) {
	s.stats = stats
}

// Notify replaces any visible notice; the bumped seq lets a pending
// auto-dismiss recognize it is stale.
func (s *State) Notify(severity app.Severity, message string) {
	s.notice = notice{severity: severity, text: message, seq: s.notice.seq + 1}
}

func (s *State) Begin(it *task.Item) {
	s.pending = it
}

func (s *State) takePending() *task.Item {
	it := s.pending
	s.pending = nil
	return it
}

func (s *State) clearNotice(seq int) {
	if s.notice.seq == seq {
		s.notice.text = ""
	}
}
