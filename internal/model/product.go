package model

import (
	"time"
)

// Product represents a product entity with its properties and metadata.
// ID and CreatedAt are assigned by the database on insert and never change afterwards.
type Product struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}
