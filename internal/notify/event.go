// Package notify publishes change events for live consumers such as cache
// invalidators and UI push.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultChannel is the pub/sub channel change events are published on
const DefaultChannel = "changes"

// Action is what happened to an entity
type Action string

const (
	Added   Action = "added"
	Updated Action = "updated"
	Deleted Action = "deleted"
)

// Kind is the entity type an event refers to
type Kind string

const (
	KindActivity Kind = "activity"
	KindTask     Kind = "task"
	KindProject  Kind = "project"
	KindState    Kind = "state"
	KindAssigned Kind = "assigned"
	KindUser     Kind = "user"
)

var (
	ErrInvalidEvent = errors.New("invalid event")
	ErrInvalidType  = errors.New("invalid type")
)

// Event is the wire shape of a change notification
type Event struct {
	Event  Action `json:"event"`
	Type   Kind   `json:"type"`
	ID     uint   `json:"id"`
	Parent uint   `json:"parent"`
}

// ActivityUpdated is emitted for every re-timed or re-linked activity
func ActivityUpdated(activityID, taskID uint) Event {
	return Event{Event: Updated, Type: KindActivity, ID: activityID, Parent: taskID}
}

// TaskUpdated is emitted by the scheduler for every re-timed task
func TaskUpdated(taskID, projectID uint) Event {
	return Event{Event: Updated, Type: KindTask, ID: taskID, Parent: projectID}
}

func (a Action) valid() bool {
	switch a {
	case Added, Updated, Deleted:
		return true
	}
	return false
}

func (k Kind) valid() bool {
	switch k {
	case KindActivity, KindTask, KindProject, KindState, KindAssigned, KindUser:
		return true
	}
	return false
}

// Validate checks the action and the entity type
func (e Event) Validate() error {
	if !e.Event.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidEvent, e.Event)
	}
	if !e.Type.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, e.Type)
	}
	return nil
}

// Encode validates the event and renders its JSON payload
func (e Event) Encode() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s %d (parent %d)", e.Event, e.Type, e.ID, e.Parent)
}
