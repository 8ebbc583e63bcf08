package events

// Event is implemented by every pipeline event
type Event interface {
	IsEvent()
}

type Base struct {
}

func (b *Base) IsEvent() {}
