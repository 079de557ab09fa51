package models

import "time"

// TableKind distinguishes seatable tables from non-seating layout markers
// (entrance, kitchen, bar) placed on the floor map.
type TableKind string

const (
	KindTable     TableKind = "table"
	KindReference TableKind = "reference"
)

// TableStatus is the occupancy state of a table.
type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableBusy      TableStatus = "busy"
	TableReserved  TableStatus = "reserved"
)

// Table is a floor-layout element. Position and size drive the map view;
// Seats only applies to KindTable. Locked gates layout edits (move/resize),
// never occupancy changes. Version increments on every server-side write and
// backs the conflict check on PATCH.
type Table struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	Label      string      `json:"label" gorm:"not null"`
	Kind       TableKind   `json:"kind" gorm:"default:'table'"`
	Seats      int         `json:"seats,omitempty"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	Width      float64     `json:"width,omitempty"`
	Height     float64     `json:"height,omitempty"`
	Status     TableStatus `json:"status" gorm:"default:'available'"`
	ReservedBy string      `json:"reservedBy,omitempty"`
	Locked     bool        `json:"locked"`
	Version    int         `json:"version"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// TablePatch is a partial update for PATCH /tables/:id. Version carries the
// version the client last observed; the server rejects the write with 409 if
// the stored row has moved past it.
type TablePatch struct {
	Label      *string      `json:"label,omitempty"`
	X          *float64     `json:"x,omitempty"`
	Y          *float64     `json:"y,omitempty"`
	Width      *float64     `json:"width,omitempty"`
	Height     *float64     `json:"height,omitempty"`
	Status     *TableStatus `json:"status,omitempty"`
	ReservedBy *string      `json:"reservedBy,omitempty"`
	Locked     *bool        `json:"locked,omitempty"`
	Version    int          `json:"version"`
}
