package app

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// ToastType is the visual kind of a notification.
type ToastType string

const (
	ToastSuccess ToastType = "success"
	ToastError   ToastType = "error"
)

// Toast is a dismissible notification.
type Toast struct {
	ID      string
	Message string
	Type    ToastType
}

// IDGenerator returns a new unique notification id on every call.
type IDGenerator func() string

// UUIDGenerator returns random v4 UUIDs.
func UUIDGenerator() IDGenerator {
	return uuid.NewString
}

// MonotonicGenerator returns "1", "2", "3", ...
func MonotonicGenerator() IDGenerator {
	var n atomic.Uint64
	return func() string {
		return strconv.FormatUint(n.Add(1), 10)
	}
}

// ToastQueue keeps notifications in arrival order until they are dismissed.
type ToastQueue struct {
	items  []Toast
	nextID IDGenerator
}

// NewToastQueue creates an empty queue. A nil generator means UUIDGenerator.
func NewToastQueue(nextID IDGenerator) *ToastQueue {
	if nextID == nil {
		nextID = UUIDGenerator()
	}
	return &ToastQueue{nextID: nextID}
}

// Push appends a notification and returns it.
func (q *ToastQueue) Push(message string, typ ToastType) Toast {
	toast := Toast{ID: q.nextID(), Message: message, Type: typ}
	q.items = append(q.items, toast)
	return toast
}

// Dismiss removes the notification with the given id and reports whether it was present.
func (q *ToastQueue) Dismiss(id string) bool {
	for i, toast := range q.items {
		if toast.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns a copy of the queued notifications, oldest first.
func (q *ToastQueue) Items() []Toast {
	return append([]Toast(nil), q.items...)
}

func (q *ToastQueue) Len() int {
	return len(q.items)
}
