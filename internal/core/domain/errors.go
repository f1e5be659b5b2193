package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room full")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrRoomClosed          = errors.New("room closed")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrAllocationExhausted = errors.New("room id allocation exhausted")
)

// NotFoundError carries the id of the missing room.
type NotFoundError struct {
	RoomID RoomID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("room %s not found", e.RoomID)
}

func (e *NotFoundError) Unwrap() error { return ErrRoomNotFound }

// FullError is returned when admission would exceed room capacity.
type FullError struct {
	RoomID   RoomID
	Capacity int
}

func (e *FullError) Error() string {
	return fmt.Sprintf("room %s is full (capacity %d)", e.RoomID, e.Capacity)
}

func (e *FullError) Unwrap() error { return ErrRoomFull }

// PermissionError is returned when a non-creator attempts a creator-only action.
type PermissionError struct {
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s requires the room creator", e.Action)
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }

// ClosedError is returned for mutations attempted against a closed room.
type ClosedError struct {
	RoomID RoomID
}

func (e *ClosedError) Error() string {
	return fmt.Sprintf("room %s is closed", e.RoomID)
}

func (e *ClosedError) Unwrap() error { return ErrRoomClosed }

// ValidationError collects every field constraint violated by a single call,
// never just the first one found.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	if !e.HasErrors() {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}
