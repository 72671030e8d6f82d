// Package app wires the bus, repository and strategies together. The
// controller translates intent events into mutations and recomputes the
// rendered projection after each one.
package app

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"taskdeck/internal/bus"
	"taskdeck/internal/query"
	"taskdeck/internal/repo"
	"taskdeck/internal/task"
)

type Severity int

const (
	SeveritySuccess Severity = iota
	SeverityError
	SeverityInfo
)

// View is the outward contract the controller renders through.
type View interface {
	RenderList(items []*task.Item)
	RenderStats(stats query.Stats)
	Notify(severity Severity, message string)
}

// Editor is the edit-session collaborator. An edit intent fetches the item
// and hands it over; the session later emits a todo:update intent with the
// field changes.
type Editor interface {
	Begin(it *task.Item)
}

type Controller struct {
	bus    *bus.Bus
	repo   *repo.Repository
	view   View
	editor Editor
	logger *log.Logger

	filter query.Filter
	sort   query.Sort
	search query.Search
}

// New builds the controller and subscribes it to the intent catalog.
// Unknown default filter/sort names fall back to all/newest.
func New(b *bus.Bus, r *repo.Repository, view View, editor Editor, logger *log.Logger, defaultFilter, defaultSort string) *Controller {
	c := &Controller{
		bus:    b,
		repo:   r,
		view:   view,
		editor: editor,
		logger: logger,
		filter: query.FilterAll,
		sort:   query.SortNewest,
	}
	if f, ok := query.ParseFilter(defaultFilter); ok {
		c.filter = f
	}
	if s, ok := query.ParseSort(defaultSort); ok {
		c.sort = s
	}

	b.Subscribe(EventAdd, c.handleAdd)
	b.Subscribe(EventToggle, c.handleToggle)
	b.Subscribe(EventDelete, c.handleDelete)
	b.Subscribe(EventEdit, c.handleEdit)
	b.Subscribe(EventUpdate, c.handleUpdate)
	b.Subscribe(EventFilterChange, c.handleFilterChange)
	b.Subscribe(EventSortChange, c.handleSortChange)
	b.Subscribe(EventSearchChange, c.handleSearchChange)
	b.Subscribe(EventBulkClear, c.handleBulkClear)
	return c
}

func (c *Controller) Filter() query.Filter { return c.filter }
func (c *Controller) Sort() query.Sort     { return c.sort }
func (c *Controller) SearchQuery() string  { return c.search.Query() }

// Refresh recomputes the projection and pushes it to the view. The pipeline
// order is fixed: filter, then search, then sort, so a narrowing pass can
// never disturb the final ordering.
func (c *Controller) Refresh() {
	all := c.repo.GetAll()
	items := c.filter.Apply(all)
	items = c.search.Apply(items)
	items = c.sort.Apply(items)
	c.view.RenderList(items)
	c.view.RenderStats(query.Count(all))
}

func (c *Controller) handleAdd(payload any) {
	p, ok := payload.(AddPayload)
	if !ok {
		c.badPayload(EventAdd, payload)
		return
	}
	it, err := task.New(p.Text, p.Priority)
	if err != nil {
		c.fail("add task", err)
		return
	}
	c.repo.Add(it)
	c.bus.Publish(EventAdded, it)
	c.view.Notify(SeveritySuccess, "Added "+quote(it.Text))
	c.Refresh()
}

func (c *Controller) handleToggle(payload any) {
	p, ok := payload.(TogglePayload)
	if !ok {
		c.badPayload(EventToggle, payload)
		return
	}
	it, err := c.repo.Update(p.ID, func(it *task.Item) error {
		it.ToggleDone()
		return nil
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Stale view id; nothing user-visible to report.
			c.logger.WithField("id", p.ID).Warn("toggle for unknown item")
			return
		}
		c.fail("toggle task", err)
		return
	}
	c.bus.Publish(EventToggled, it)
	c.Refresh()
}

func (c *Controller) handleDelete(payload any) {
	p, ok := payload.(DeletePayload)
	if !ok {
		c.badPayload(EventDelete, payload)
		return
	}
	if !c.repo.Remove(p.ID) {
		c.logger.WithField("id", p.ID).Warn("delete for unknown item")
		return
	}
	c.bus.Publish(EventDeleted, p.ID)
	c.view.Notify(SeveritySuccess, "Deleted task")
	c.Refresh()
}

func (c *Controller) handleEdit(payload any) {
	p, ok := payload.(EditPayload)
	if !ok {
		c.badPayload(EventEdit, payload)
		return
	}
	it, ok := c.repo.GetByID(p.ID)
	if !ok {
		c.view.Notify(SeverityError, "Task no longer exists")
		return
	}
	c.editor.Begin(it)
}

func (c *Controller) handleUpdate(payload any) {
	p, ok := payload.(UpdatePayload)
	if !ok {
		c.badPayload(EventUpdate, payload)
		return
	}
	it, err := c.repo.Update(p.ID, func(it *task.Item) error {
		// Stage on a copy so a rejected change cannot half-apply: the item
		// is shared by reference and would otherwise leak into the next
		// persist.
		staged := *it
		if p.Updates.Text != nil {
			if err := staged.UpdateText(*p.Updates.Text); err != nil {
				return err
			}
		}
		if p.Updates.Priority != nil {
			if err := staged.UpdatePriority(*p.Updates.Priority); err != nil {
				return err
			}
		}
		*it = staged
		return nil
	})
	if err != nil {
		c.fail("update task", err)
		return
	}
	c.bus.Publish(EventUpdated, it)
	c.view.Notify(SeveritySuccess, "Updated "+quote(it.Text))
	c.Refresh()
}

func (c *Controller) handleFilterChange(payload any) {
	p, ok := payload.(FilterChangePayload)
	if !ok {
		c.badPayload(EventFilterChange, payload)
		return
	}
	f, ok := query.ParseFilter(p.Name)
	if !ok {
		c.logger.WithField("name", p.Name).Warn("unknown filter ignored")
		return
	}
	c.filter = f
	c.bus.Publish(EventFilterChanged, f)
	c.Refresh()
}

func (c *Controller) handleSortChange(payload any) {
	p, ok := payload.(SortChangePayload)
	if !ok {
		c.badPayload(EventSortChange, payload)
		return
	}
	s, ok := query.ParseSort(p.Name)
	if !ok {
		c.logger.WithField("name", p.Name).Warn("unknown sort ignored")
		return
	}
	c.sort = s
	c.bus.Publish(EventSortChanged, s)
	c.Refresh()
}

func (c *Controller) handleSearchChange(payload any) {
	p, ok := payload.(SearchChangePayload)
	if !ok {
		c.badPayload(EventSearchChange, payload)
		return
	}
	c.search.Set(p.Query)
	c.Refresh()
}

func (c *Controller) handleBulkClear(_ any) {
	n := c.repo.RemoveWhere(func(it *task.Item) bool { return it.Done })
	if n == 0 {
		c.view.Notify(SeverityInfo, "No completed tasks to clear")
		return
	}
	c.view.Notify(SeveritySuccess, fmt.Sprintf("Cleared %d completed", n))
	c.Refresh()
}

// fail recovers the expected kinds at the controller boundary; anything else
// is unexpected and escapes to the bus, which logs the blown handler.
func (c *Controller) fail(action string, err error) {
	if errors.Is(err, task.ErrValidation) || errors.Is(err, repo.ErrNotFound) {
		c.view.Notify(SeverityError, "Could not "+action+": "+err.Error())
		return
	}
	panic(err)
}

func (c *Controller) badPayload(event string, payload any) {
	c.logger.WithField("event", event).Warnf("dropping payload of type %T", payload)
}

func quote(s string) string {
	const max = 24
	r := []rune(s)
	if len(r) > max {
		s = string(r[:max]) + "…"
	}
	return "\"" + s + "\""
}
