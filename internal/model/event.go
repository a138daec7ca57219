package model

// EventType distinguishes virtual from in-person events.
type EventType string

const (
	EventTypeVirtual  EventType = "virtual"
	EventTypeInPerson EventType = "in-person"
	EventTypeUnknown  EventType = "unknown"
)

// Event is one qualified community event, keyed by URL.
type Event struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Organizer   string    `json:"organizer"`
	EventType   EventType `json:"event_type"`
	City        string    `json:"location_city"`
	State       string    `json:"location_state"`
	Country     string    `json:"location_country"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Description string    `json:"description"`
}
