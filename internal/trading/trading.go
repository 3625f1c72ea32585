package trading

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/stocksaga/stocksaga-api/internal/auth"
	"github.com/stocksaga/stocksaga-api/internal/market"
	"github.com/stocksaga/stocksaga-api/internal/types"
	"github.com/stocksaga/stocksaga-api/pkg/response"
)

var (
	ErrUnknownSymbol        = errors.New("unknown symbol")
	ErrInsufficientFunds    = errors.New("insufficient balance for this purchase")
	ErrInsufficientHoldings = errors.New("not enough shares to sell")
)

// TradeRequest is the trade submission payload. The trading PIN is verified
// in a separate round trip before this is sent.
type TradeRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Action   string `json:"action" binding:"required,oneof=buy sell"`
}

// Service executes simulated trades: it prices the order, mutates balance
// and holdings atomically and appends the immutable ledger record.
type Service struct {
	db     *Database
	prices market.PriceProvider
}

func NewService(gormDB *gorm.DB, prices market.PriceProvider) *Service {
	return &Service{
		db:     NewDatabase(gormDB),
		prices: prices,
	}
}

// Execute runs one buy or sell at the current market price. On success the
// updated balance and holdings snapshot is returned so the caller can refresh
// its displayed state without a second fetch.
func (s *Service) Execute(ctx context.Context, userID uint, req TradeRequest) (*types.TradeResult, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))

	price, err := s.prices.Price(ctx, symbol)
	if err != nil {
		if errors.Is(err, market.ErrSymbolNotFound) {
			return nil, ErrUnknownSymbol
		}
		return nil, err
	}

	result, err := s.db.ExecuteTrade(userID, symbol, req.Action, req.Quantity, price)
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("user_id", userID).
		Str("symbol", symbol).
		Str("action", req.Action).
		Int("quantity", req.Quantity).
		Float64("price", price).
		Float64("updated_balance", result.UpdatedBalance).
		Msg("trade executed")

	return result, nil
}

// GinHandlers contains HTTP handlers for trade submission
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// TradeHandler handles POST requests to execute a buy or sell.
// Requires a valid session token.
func (h *GinHandlers) TradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, exists := c.Get("claims")
		if !exists {
			response.Unauthorized(c, "Missing authentication claims")
			return
		}
		userID := auth.GetUserID(claims)
		if userID == 0 {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		var req TradeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		result, err := h.service.Execute(c.Request.Context(), userID, req)
		if err != nil {
			switch {
			case errors.Is(err, ErrUnknownSymbol):
				response.NotFound(c, err.Error())
			case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrInsufficientHoldings):
				response.BadRequest(c, err.Error())
			default:
				response.InternalError(c, "Transaction failed")
			}
			return
		}

		response.Success(c, result)
	}
}
