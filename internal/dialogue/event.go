package dialogue

// EventType tags the kind of inbound event.
type EventType string

const (
	EventText     EventType = "text"
	EventButton   EventType = "button"
	EventListRow  EventType = "list_row"
	EventMedia    EventType = "media"
	EventLocation EventType = "location"
)

// Location is the coordinates payload of a location event.
type Location struct {
	Latitude  float64
	Longitude float64
	Name      string
	Address   string
}

// Event is one inbound conversation event, already parsed out of the webhook
// envelope.
type Event struct {
	Type      EventType
	Text      string
	ButtonID  string
	RowID     string
	MediaID   string
	MediaMime string
	Location  *Location
}

// TextEvent builds a plain text event.
func TextEvent(text string) Event { return Event{Type: EventText, Text: text} }

// ButtonEvent builds a button-reply event.
func ButtonEvent(id string) Event { return Event{Type: EventButton, ButtonID: id} }

// RowEvent builds a list-row selection event.
func RowEvent(id string) Event { return Event{Type: EventListRow, RowID: id} }

// MediaEvent builds a media event.
func MediaEvent(mediaID, mime string) Event {
	return Event{Type: EventMedia, MediaID: mediaID, MediaMime: mime}
}

// LocationEvent builds a location event.
func LocationEvent(loc Location) Event { return Event{Type: EventLocation, Location: &loc} }
