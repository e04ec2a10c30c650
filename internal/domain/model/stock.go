package model

import "time"

// MovementKind classifies stock ledger entries.
type MovementKind string

const (
	MovementSale       MovementKind = "sale"
	MovementReturn     MovementKind = "return"
	MovementRestock    MovementKind = "restock"
	MovementAdjustment MovementKind = "adjustment"
	MovementDamage     MovementKind = "damage"
)

// StockMovement is an append-only ledger entry.
type StockMovement struct {
	ID            int64
	ProductID     int64
	ColorID       *int64
	OrderID       *int64
	Kind          MovementKind
	Delta         int
	PreviousStock int
	NewStock      int
	Note          string
	CreatedAt     time.Time
}
