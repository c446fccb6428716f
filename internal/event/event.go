// Package event defines the UI event values routed by screenloop dispatch.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Metadata contains standard information attached to every event.
type Metadata struct {
	// ID is a unique identifier for this event instance.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source identifies the module that produced the event.
	Source string
}

// NewMetadata creates metadata for a freshly produced event.
func NewMetadata(source string) Metadata {
	return Metadata{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Source:    source,
	}
}

// Motion is a pointer or motion input sample in screen coordinates.
type Motion struct {
	X, Y float64
	Meta Metadata
}

// NewMotion creates a motion event from a coordinate pair.
func NewMotion(source string, x, y float64) Motion {
	return Motion{X: x, Y: y, Meta: NewMetadata(source)}
}

// Command is an identifier-keyed command event, such as a selected menu
// item. ID is the command's stable identifier (e.g. "save").
type Command struct {
	ID   string
	Meta Metadata
}

// NewCommand creates a command event for the given identifier.
func NewCommand(source, id string) Command {
	return Command{ID: id, Meta: NewMetadata(source)}
}

// HandlerName maps a command identifier to its conventional handler name.
// The identifier "save" is handled by "saveClicked".
func HandlerName(id string) string {
	return id + "Clicked"
}
