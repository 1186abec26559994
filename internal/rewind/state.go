package rewind

import "github.com/annel0/rewind/internal/eventbus"

// State режим воспроизведения объекта
type State uint8

const (
	StateRecording State = iota
	StateRewinding
	StateFastForwarding
	StateScrubbing
)

func (s State) String() string {
	switch s {
	case StateRewinding:
		return "rewinding"
	case StateFastForwarding:
		return "fast_forwarding"
	case StateScrubbing:
		return "scrubbing"
	default:
		return "recording"
	}
}

// MarshalText отдаёт состояние в JSON строкой
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Direction направление движения по истории
type Direction uint8

const (
	DirectionRewind Direction = iota
	DirectionFastForward
)

func (d Direction) String() string {
	if d == DirectionFastForward {
		return "fast_forward"
	}
	return "rewind"
}

// MarshalText отдаёт направление в JSON строкой
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// step сдвиг курсора при движении в этом направлении
func (d Direction) step() int {
	if d == DirectionFastForward {
		return 1
	}
	return -1
}

// motion активная перемотка. Назад и вперёд одновременно быть не может.
type motion uint8

const (
	motionNone motion = iota
	motionRewind
	motionFastForward
)

// operation одна из трёх операций со временем
type operation uint8

const (
	opRewind operation = iota
	opFastForward
	opScrub
)

func (op operation) String() string {
	switch op {
	case opFastForward:
		return "fast_forward"
	case opScrub:
		return "scrub"
	default:
		return "rewind"
	}
}

// События контроллера; у каждого объекта своя шина
const (
	EventManipulationStarted   eventbus.EventType = "rewind.manipulation.started"
	EventManipulationCompleted eventbus.EventType = "rewind.manipulation.completed"
	EventRewindStarted         eventbus.EventType = "rewind.rewind.started"
	EventRewindCompleted       eventbus.EventType = "rewind.rewind.completed"
	EventFastForwardStarted    eventbus.EventType = "rewind.fast_forward.started"
	EventFastForwardCompleted  eventbus.EventType = "rewind.fast_forward.completed"
	EventScrubStarted          eventbus.EventType = "rewind.scrub.started"
	EventScrubCompleted        eventbus.EventType = "rewind.scrub.completed"
)
