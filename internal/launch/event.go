package launch

// Kind identifies a raw lifecycle event as delivered by a transport.
type Kind string

const (
	KindInitiated Kind = "initiated"
	KindCompleted Kind = "completed"
	KindCanceled  Kind = "canceled"
)

// RawEvent is a lifecycle notification before normalisation. Transports
// (D-Bus methods, startup-notification messages, systemd job signals) all
// reduce to this shape.
type RawEvent struct {
	Kind Kind
	ID   string
	// Source names the transport, for logging only.
	Source string
}

// Handler receives normalised launch events.
type Handler interface {
	LaunchInitiated(id string)
	LaunchCompleted(id string)
	LaunchCanceled(id string)
}

// Adapter normalises raw events into Handler calls.
type Adapter struct {
	handler Handler
}

// NewAdapter creates an adapter dispatching to h.
func NewAdapter(h Handler) *Adapter {
	return &Adapter{handler: h}
}

// Dispatch translates ev into the matching handler call. Unknown kinds and
// events without an id are dropped; it reports whether ev was dispatched.
func (a *Adapter) Dispatch(ev RawEvent) bool {
	if ev.ID == "" {
		return false
	}
	switch ev.Kind {
	case KindInitiated:
		a.handler.LaunchInitiated(ev.ID)
	case KindCompleted:
		a.handler.LaunchCompleted(ev.ID)
	case KindCanceled:
		a.handler.LaunchCanceled(ev.ID)
	default:
		return false
	}
	return true
}

// ParseKind maps a kind name to a Kind. The second value is false for names
// that are not one of the three lifecycle kinds.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindInitiated, KindCompleted, KindCanceled:
		return k, true
	default:
		return "", false
	}
}
