package portfolio

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

// Holdings returns the current positions for one account.
func (d *Database) Holdings(userID uint) ([]types.Holding, error) {
	var holdings []types.Holding
	if err := d.db.Where("user_id = ?", userID).Order("symbol ASC").Find(&holdings).Error; err != nil {
		return nil, err
	}
	return holdings, nil
}
