package chip

import "strings"

// EventKind is the classified form of a webhook's status field. Unknown is a
// first-class variant rather than a silent fall-through: callers get the raw
// status back so it can be logged and recorded.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventPaid
	EventFailed
	EventCanceled
	EventPending
	EventViewed
)

func (k EventKind) String() string {
	switch k {
	case EventPaid:
		return "paid"
	case EventFailed:
		return "failed"
	case EventCanceled:
		return "canceled"
	case EventPending:
		return "pending"
	case EventViewed:
		return "viewed"
	default:
		return "unknown"
	}
}

// ClassifyStatus maps a gateway status string to an EventKind. The second
// return value is the normalized raw status, meaningful for the Unknown arm.
func ClassifyStatus(raw string) (EventKind, string) {
	status := strings.ToLower(strings.TrimSpace(raw))
	switch status {
	case "paid":
		return EventPaid, status
	case "failed", "error":
		return EventFailed, status
	case "canceled", "cancelled":
		return EventCanceled, status
	case "created", "pending":
		return EventPending, status
	case "viewed":
		return EventViewed, status
	default:
		return EventUnknown, status
	}
}
