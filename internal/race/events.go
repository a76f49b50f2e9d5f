package race

// Event is a discrete named occurrence raised by the session. The engine
// emits events; rendering or vocalizing them is the sink's business.
type Event string

const (
	EventRaceStart       Event = "RACE_START"
	EventZoneBreached    Event = "ZONE_BREACHED"
	EventOvertakeWarning Event = "OVERTAKE_WARNING"
	EventSpeedFlag       Event = "SPEED_FLAG"
)

// EventSink receives session events with optional interpolation variables.
type EventSink interface {
	Notify(event Event, vars map[string]string)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Notify(Event, map[string]string) {}
