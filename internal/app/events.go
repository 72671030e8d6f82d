package app

// Bus event catalog. Intents come in from input adapters; the past-tense
// notifications go back out after the matching mutation lands. This is the
// whole coupling surface between the core and its collaborators.
const (
	EventAdd          = "todo:add"
	EventToggle       = "todo:toggle"
	EventDelete       = "todo:delete"
	EventEdit         = "todo:edit"
	EventUpdate       = "todo:update"
	EventFilterChange = "filter:change"
	EventSortChange   = "sort:change"
	EventSearchChange = "search:change"
	EventBulkClear    = "bulk:clearCompleted"

	EventAdded         = "todo:added"
	EventToggled       = "todo:toggled"
	EventDeleted       = "todo:deleted"
	EventUpdated       = "todo:updated"
	EventFilterChanged = "filter:changed"
	EventSortChanged   = "sort:changed"
)

type AddPayload struct {
	Text     string
	Priority string
}

type TogglePayload struct {
	ID string
}

type DeletePayload struct {
	ID string
}

type EditPayload struct {
	ID string
}

// Updates carries the field changes of an update intent; nil means leave the
// field alone.
type Updates struct {
	Text     *string
	Priority *string
}

type UpdatePayload struct {
	ID      string
	Updates Updates
}

type FilterChangePayload struct {
	Name string
}

type SortChangePayload struct {
	Name string
}

type SearchChangePayload struct {
	Query string
}
