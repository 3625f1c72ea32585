package trading

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stocksaga/stocksaga-api/internal/auth"
	"github.com/stocksaga/stocksaga-api/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// ExecuteTrade mutates balance and holdings and appends the ledger record in
// a single transaction. Money arithmetic runs on decimals; floats only exist
// at the storage edge. The Transaction row carries the precomputed TotalCost:
// readers of the ledger never recompute it.
func (d *Database) ExecuteTrade(userID uint, symbol, action string, quantity int, price float64) (*types.TradeResult, error) {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var user auth.User
	if err := tx.First(&user, userID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	totalCost := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
	balance := decimal.NewFromFloat(user.Balance)

	var holding types.Holding
	err := tx.Where("user_id = ? AND symbol = ?", userID, symbol).First(&holding).Error
	holdingExists := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, err
	}

	switch action {
	case types.ActionBuy:
		if balance.LessThan(totalCost) {
			tx.Rollback()
			return nil, ErrInsufficientFunds
		}
		balance = balance.Sub(totalCost)

		if holdingExists {
			// Weighted-average cost across the old position and this buy.
			oldCost := decimal.NewFromFloat(holding.Price).Mul(decimal.NewFromInt(int64(holding.Quantity)))
			newQty := holding.Quantity + quantity
			holding.Price = oldCost.Add(totalCost).Div(decimal.NewFromInt(int64(newQty))).InexactFloat64()
			holding.Quantity = newQty
			if err := tx.Save(&holding).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		} else {
			holding = types.Holding{
				UserID:   userID,
				Symbol:   symbol,
				Quantity: quantity,
				Price:    price,
			}
			if err := tx.Create(&holding).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		}

	case types.ActionSell:
		if !holdingExists || holding.Quantity < quantity {
			tx.Rollback()
			return nil, ErrInsufficientHoldings
		}
		balance = balance.Add(totalCost)

		holding.Quantity -= quantity
		if holding.Quantity == 0 {
			if err := tx.Delete(&holding).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		} else {
			if err := tx.Save(&holding).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		}

	default:
		tx.Rollback()
		return nil, errors.New("action must be buy or sell")
	}

	user.Balance = balance.InexactFloat64()
	if err := tx.Save(&user).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	record := types.Transaction{
		TransactionID: uuid.New().String(),
		UserID:        userID,
		Symbol:        symbol,
		Action:        action,
		Quantity:      quantity,
		Price:         price,
		TotalCost:     totalCost.InexactFloat64(),
		Date:          time.Now(),
	}
	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	var holdings []types.Holding
	if err := tx.Where("user_id = ?", userID).Order("symbol ASC").Find(&holdings).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &types.TradeResult{
		UpdatedBalance:   user.Balance,
		UpdatedPortfolio: holdings,
	}, nil
}
