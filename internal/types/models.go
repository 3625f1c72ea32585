package types

import (
	"time"

	"gorm.io/gorm"
)

// Trade actions as stored on the ledger.
const (
	ActionBuy  = "buy"
	ActionSell = "sell"
)

// Transaction is one executed trade on the account ledger. Rows are written
// once at trade time and never mutated or deleted afterwards. TotalCost is
// computed by the trading service when the row is created; readers must not
// recompute it.
type Transaction struct {
	gorm.Model    `json:"-"`
	TransactionID string    `gorm:"uniqueIndex" json:"id"`
	UserID        uint      `gorm:"index" json:"-"`
	Symbol        string    `json:"symbol"`
	Action        string    `json:"action"` // buy or sell
	Quantity      int       `json:"quantity"`
	Price         float64   `json:"price"`
	TotalCost     float64   `json:"totalCost"`
	Date          time.Time `json:"date"`
}

// Holding is one portfolio position: quantity held plus the average buy
// price per unit. Maintained by the trading service as trades execute.
type Holding struct {
	gorm.Model `json:"-"`
	UserID     uint    `gorm:"index:idx_holding_user_symbol,unique" json:"-"`
	Symbol     string  `gorm:"index:idx_holding_user_symbol,unique" json:"symbol"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"` // average buy price per unit
}
