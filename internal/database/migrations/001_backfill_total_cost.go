package migrations

import (
	"github.com/stocksaga/stocksaga-api/internal/types"
	"gorm.io/gorm"
)

// BackfillTotalCost migrates the transactions table and fills total_cost for
// ledger rows written before the column existed. TotalCost is computed once
// here, at write time; history reads never derive it.
func BackfillTotalCost(db *gorm.DB) error {
	if err := db.AutoMigrate(&types.Transaction{}); err != nil {
		return err
	}

	return db.Model(&types.Transaction{}).
		Where("total_cost = 0 AND quantity > 0").
		Update("total_cost", gorm.Expr("price * quantity")).Error
}
