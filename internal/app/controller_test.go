package app

import (
	"io"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	"taskdeck/internal/bus"
	"taskdeck/internal/query"
	"taskdeck/internal/repo"
	"taskdeck/internal/storage"
	"taskdeck/internal/task"
)

// recordingView captures the latest projection and every notification.
type recordingView struct {
	items    []*task.Item
	stats    query.Stats
	renders  int
	notices  []string
	editItem *task.Item
}

func (v *recordingView) RenderList(items []*task.Item) {
	v.items = items
	v.renders++
}

func (v *recordingView) RenderStats(stats query.Stats) { v.stats = stats }

func (v *recordingView) Notify(sev Severity, msg string) {
	label := map[Severity]string{SeveritySuccess: "success", SeverityError: "error", SeverityInfo: "info"}[sev]
	v.notices = append(v.notices, label+": "+msg)
}

func (v *recordingView) Begin(it *task.Item) { v.editItem = it }

func (v *recordingView) lastNotice() string {
	if len(v.notices) == 0 {
		return ""
	}
	return v.notices[len(v.notices)-1]
}

func newFixture(t *testing.T) (*bus.Bus, *repo.Repository, *Controller, *recordingView) {
	t.Helper()
	logger := log.New()
	logger.SetOutput(io.Discard)
	b := bus.New(logger)
	r := repo.New(storage.NewMemory(), repo.DefaultKey, logger)
	view := &recordingView{}
	c := New(b, r, view, view, logger, "all", "newest")
	return b, r, c, view
}

func addOne(t *testing.T, b *bus.Bus, view *recordingView, text, priority string) string {
	t.Helper()
	b.Publish(EventAdd, AddPayload{Text: text, Priority: priority})
	for _, it := range view.items {
		if it.Text == strings.TrimSpace(text) {
			return it.ID
		}
	}
	t.Fatalf("added item %q not in projection", text)
	return ""
}

func TestAddToggleDeleteLifecycle(t *testing.T) {
	b, r, _, view := newFixture(t)

	id := addOne(t, b, view, "buy milk", "high")
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
	want := query.Stats{Total: 1, Active: 1, Completed: 0, HighPriority: 1}
	if view.stats != want {
		t.Errorf("stats = %+v, want %+v", view.stats, want)
	}
	if !strings.HasPrefix(view.lastNotice(), "success") {
		t.Errorf("notice = %q", view.lastNotice())
	}

	b.Publish(EventToggle, TogglePayload{ID: id})
	want = query.Stats{Total: 1, Active: 0, Completed: 1, HighPriority: 0}
	if view.stats != want {
		t.Errorf("after toggle stats = %+v, want %+v", view.stats, want)
	}

	b.Publish(EventDelete, DeletePayload{ID: id})
	if r.Count() != 0 {
		t.Errorf("count after delete = %d", r.Count())
	}
	if len(view.items) != 0 {
		t.Errorf("projection still shows %d items", len(view.items))
	}
}

func TestAddPublishesAddedEvent(t *testing.T) {
	b, _, _, view := newFixture(t)
	var added *task.Item
	b.Subscribe(EventAdded, func(p any) { added, _ = p.(*task.Item) })

	addOne(t, b, view, "observable", "low")
	if added == nil || added.Text != "observable" {
		t.Errorf("todo:added carried %+v", added)
	}
}

func TestAddValidationFailureNotifies(t *testing.T) {
	b, r, _, view := newFixture(t)
	b.Publish(EventAdd, AddPayload{Text: "   ", Priority: "high"})

	if r.Count() != 0 {
		t.Errorf("invalid add stored an item")
	}
	if !strings.HasPrefix(view.lastNotice(), "error") {
		t.Errorf("notice = %q, want error severity", view.lastNotice())
	}
}

func TestPrioritySortOrdering(t *testing.T) {
	b, _, _, view := newFixture(t)
	addOne(t, b, view, "low task", "low")
	addOne(t, b, view, "high task", "high")
	addOne(t, b, view, "medium task", "medium")

	b.Publish(EventSortChange, SortChangePayload{Name: "priority"})

	got := make([]string, len(view.items))
	for i, it := range view.items {
		got[i] = it.Text
	}
	want := []string{"high task", "medium task", "low task"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestFilterSearchSortPipeline(t *testing.T) {
	b, _, _, view := newFixture(t)
	milk := addOne(t, b, view, "buy milk", "low")
	addOne(t, b, view, "buy bread", "high")
	addOne(t, b, view, "walk dog", "medium")
	b.Publish(EventToggle, TogglePayload{ID: milk})

	b.Publish(EventFilterChange, FilterChangePayload{Name: "completed"})
	if len(view.items) != 1 || view.items[0].Text != "buy milk" {
		t.Fatalf("completed filter shows %d items", len(view.items))
	}

	// Search narrows within the active filter.
	b.Publish(EventFilterChange, FilterChangePayload{Name: "active"})
	b.Publish(EventSearchChange, SearchChangePayload{Query: "BUY"})
	if len(view.items) != 1 || view.items[0].Text != "buy bread" {
		t.Fatalf("active+buy shows %v", view.items)
	}

	// Empty query restores the plain filtered view.
	b.Publish(EventSearchChange, SearchChangePayload{Query: ""})
	if len(view.items) != 2 {
		t.Errorf("active filter shows %d items, want 2", len(view.items))
	}

	// Stats always reflect the full collection, not the projection.
	if view.stats.Total != 3 || view.stats.Completed != 1 {
		t.Errorf("stats = %+v", view.stats)
	}
}

func TestUnknownFilterAndSortIgnored(t *testing.T) {
	b, _, c, view := newFixture(t)
	addOne(t, b, view, "anchor", "medium")

	b.Publish(EventFilterChange, FilterChangePayload{Name: "done-ish"})
	b.Publish(EventSortChange, SortChangePayload{Name: "random"})

	if c.Filter() != query.FilterAll || c.Sort() != query.SortNewest {
		t.Errorf("selection changed: filter=%q sort=%q", c.Filter(), c.Sort())
	}
}

func TestUpdateIntent(t *testing.T) {
	b, r, _, view := newFixture(t)
	id := addOne(t, b, view, "draft", "low")

	text := "final"
	prio := "high"
	b.Publish(EventUpdate, UpdatePayload{ID: id, Updates: Updates{Text: &text, Priority: &prio}})

	it, _ := r.GetByID(id)
	if it.Text != "final" || it.Priority != task.PriorityHigh {
		t.Errorf("item = %+v", it)
	}
}

func TestUpdateToEmptyTextRejectedAndUnchanged(t *testing.T) {
	b, r, _, view := newFixture(t)
	id := addOne(t, b, view, "keep me", "medium")

	empty := ""
	b.Publish(EventUpdate, UpdatePayload{ID: id, Updates: Updates{Text: &empty}})

	if !strings.HasPrefix(view.lastNotice(), "error") {
		t.Errorf("notice = %q, want error severity", view.lastNotice())
	}
	it, _ := r.GetByID(id)
	if it.Text != "keep me" {
		t.Errorf("text = %q, want unchanged", it.Text)
	}
}

func TestRejectedUpdateAppliesNothing(t *testing.T) {
	logger := log.New()
	logger.SetOutput(io.Discard)
	store := storage.NewMemory()
	b := bus.New(logger)
	r := repo.New(store, repo.DefaultKey, logger)
	view := &recordingView{}
	New(b, r, view, view, logger, "all", "newest")

	id := addOne(t, b, view, "original", "medium")
	before, _ := r.GetByID(id)
	updatedAt := before.UpdatedAt

	// A mixed intent where only the second change is invalid must commit
	// neither; the item is shared by reference and a half-applied edit would
	// otherwise ride along with the next persist.
	text := "tampered"
	bogus := "urgent"
	b.Publish(EventUpdate, UpdatePayload{ID: id, Updates: Updates{Text: &text, Priority: &bogus}})

	if !strings.HasPrefix(view.lastNotice(), "error") {
		t.Fatalf("notice = %q, want error severity", view.lastNotice())
	}
	it, _ := r.GetByID(id)
	if it.Text != "original" || it.Priority != task.PriorityMedium || it.UpdatedAt != updatedAt {
		t.Errorf("item changed after rejected update: %+v", it)
	}

	b.Publish(EventAdd, AddPayload{Text: "trigger persist", Priority: "low"})
	raw, ok := store.Load(repo.DefaultKey)
	if !ok {
		t.Fatal("nothing persisted")
	}
	if strings.Contains(raw, "tampered") {
		t.Error("rejected text reached storage")
	}
	if !strings.Contains(raw, "original") {
		t.Error("original text missing from storage")
	}
}

func TestUpdateUnknownPriorityRejected(t *testing.T) {
	b, r, _, view := newFixture(t)
	id := addOne(t, b, view, "stable", "low")

	bogus := "urgent"
	b.Publish(EventUpdate, UpdatePayload{ID: id, Updates: Updates{Priority: &bogus}})

	if !strings.HasPrefix(view.lastNotice(), "error") {
		t.Errorf("notice = %q, want error severity", view.lastNotice())
	}
	it, _ := r.GetByID(id)
	if it.Priority != task.PriorityLow {
		t.Errorf("priority = %q, want low", it.Priority)
	}
}

func TestToggleUnknownIDIsSilentNoOp(t *testing.T) {
	b, _, _, view := newFixture(t)
	addOne(t, b, view, "anchor", "medium")
	notices := len(view.notices)
	renders := view.renders

	b.Publish(EventToggle, TogglePayload{ID: "ghost"})

	if len(view.notices) != notices {
		t.Errorf("stale toggle raised a notification: %q", view.lastNotice())
	}
	if view.renders != renders {
		t.Errorf("stale toggle triggered a refresh")
	}
}

func TestEditDelegatesToEditor(t *testing.T) {
	b, _, _, view := newFixture(t)
	id := addOne(t, b, view, "editable", "medium")

	b.Publish(EventEdit, EditPayload{ID: id})
	if view.editItem == nil || view.editItem.ID != id {
		t.Fatalf("editor got %+v", view.editItem)
	}

	b.Publish(EventEdit, EditPayload{ID: "ghost"})
	if !strings.HasPrefix(view.lastNotice(), "error") {
		t.Errorf("edit of unknown id: notice = %q", view.lastNotice())
	}
}

func TestBulkClearCompleted(t *testing.T) {
	b, r, _, view := newFixture(t)
	a := addOne(t, b, view, "done one", "medium")
	bID := addOne(t, b, view, "done two", "medium")
	addOne(t, b, view, "open", "high")
	b.Publish(EventToggle, TogglePayload{ID: a})
	b.Publish(EventToggle, TogglePayload{ID: bID})

	b.Publish(EventBulkClear, nil)
	if r.Count() != 1 {
		t.Errorf("count = %d, want 1", r.Count())
	}
	if !strings.Contains(view.lastNotice(), "Cleared 2") {
		t.Errorf("notice = %q", view.lastNotice())
	}

	b.Publish(EventBulkClear, nil)
	if !strings.HasPrefix(view.lastNotice(), "info") {
		t.Errorf("empty clear notice = %q", view.lastNotice())
	}
}

func TestDefaultSelectionsFromConfigNames(t *testing.T) {
	logger := log.New()
	logger.SetOutput(io.Discard)
	b := bus.New(logger)
	r := repo.New(storage.NewMemory(), repo.DefaultKey, logger)
	view := &recordingView{}

	c := New(b, r, view, view, logger, "completed", "priority")
	if c.Filter() != query.FilterCompleted || c.Sort() != query.SortPriority {
		t.Errorf("defaults not applied: %q/%q", c.Filter(), c.Sort())
	}

	c2 := New(bus.New(logger), r, view, view, logger, "bogus", "bogus")
	if c2.Filter() != query.FilterAll || c2.Sort() != query.SortNewest {
		t.Errorf("fallback defaults wrong: %q/%q", c2.Filter(), c2.Sort())
	}
}
