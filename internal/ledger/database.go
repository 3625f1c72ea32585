package ledger

import (
	"github.com/stocksaga/stocksaga-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// History returns the full ledger for one account in execution order. This is
// the source collection every filter pass recomputes from.
func (d *Database) History(userID uint) ([]types.Transaction, error) {
	var txns []types.Transaction
	if err := d.db.Where("user_id = ?", userID).Order("date ASC, id ASC").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
