package realtime

// Named realtime streams.
const (
	StreamMood = "mood"
)

// Events emitted on the mood stream.
const (
	EventMoodUpdated = "mood-updated"
	EventPong        = "pong"
)

// Broadcaster delivers a message to every viewer of a stream.
type Broadcaster interface {
	BroadcastStream(stream string, message Message)
}

// DefaultStreams lists the streams a viewer joins when it names none.
func DefaultStreams() []string {
	return []string{StreamMood}
}
