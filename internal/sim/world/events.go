package world

// EventKind names a world occurrence. The values are part of the tick log format.
type EventKind string

const (
	EventSpawn         EventKind = "SPAWN"
	EventRemove        EventKind = "REMOVE"
	EventContact       EventKind = "CONTACT"
	EventSeparate      EventKind = "SEPARATE"
	EventMystery       EventKind = "MYSTERY"
	EventBounce        EventKind = "BOUNCE"
	EventSwitch        EventKind = "SWITCH"
	EventRestore       EventKind = "RESTORE"
	EventInvincible    EventKind = "INVINCIBLE"
	EventInvincibleEnd EventKind = "INVINCIBLE_END"
	EventHeal          EventKind = "HEAL"
	EventTransition    EventKind = "TRANSITION"
	EventStomp         EventKind = "STOMP"
	EventDamage        EventKind = "DAMAGE"
	EventFell          EventKind = "FELL"
	EventCollect       EventKind = "COLLECT"
)

// Event is one entry of the per-tick world event stream.
type Event struct {
	Tick  uint64    `json:"tick"`
	Kind  EventKind `json:"kind"`
	A     string    `json:"a,omitempty"`
	AID   ThingID   `json:"a_id,omitempty"`
	B     string    `json:"b,omitempty"`
	BID   ThingID   `json:"b_id,omitempty"`
	Side  Side      `json:"side,omitempty"`
	Value int       `json:"value,omitempty"`
}

func (w *World) record(kind EventKind, a, b Thing, side Side, value int) {
	e := Event{Tick: w.tick, Kind: kind, Side: side, Value: value}
	if a != nil {
		e.A, e.AID = a.Base().kind, a.Base().id
	}
	if b != nil {
		e.B, e.BID = b.Base().kind, b.Base().id
	}
	w.events = append(w.events, e)
}

// DrainEvents returns the events recorded since the last drain.
func (w *World) DrainEvents() []Event {
	out := w.events
	w.events = nil
	return out
}
