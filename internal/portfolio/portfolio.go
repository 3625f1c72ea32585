package portfolio

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stocksaga/stocksaga-api/internal/auth"
	"github.com/stocksaga/stocksaga-api/internal/market"
	"github.com/stocksaga/stocksaga-api/pkg/response"
)

// Response is the portfolio view: cash balance plus price-enriched positions.
type Response struct {
	Balance   float64           `json:"balance"`
	Portfolio []EnrichedHolding `json:"portfolio"`
}

// Service assembles the portfolio view for an account.
type Service struct {
	db       *Database
	accounts *auth.Service
	enricher *Enricher
}

func NewService(gormDB *gorm.DB, accounts *auth.Service, prices market.PriceProvider) *Service {
	return &Service{
		db:       NewDatabase(gormDB),
		accounts: accounts,
		enricher: NewEnricher(prices),
	}
}

// Portfolio fetches the account's holdings and balance and enriches every
// holding with its live price. A failed fetch is terminal for the view; a
// failed per-holding price lookup is not.
func (s *Service) Portfolio(ctx context.Context, userID uint) (*Response, error) {
	balance, err := s.accounts.Balance(userID)
	if err != nil {
		return nil, err
	}

	holdings, err := s.db.Holdings(userID)
	if err != nil {
		return nil, err
	}

	return &Response{
		Balance:   balance,
		Portfolio: s.enricher.Enrich(ctx, holdings),
	}, nil
}

// GinHandlers contains HTTP handlers for the portfolio endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// PortfolioHandler handles GET requests for the dashboard portfolio view.
// Requires a valid session token.
func (h *GinHandlers) PortfolioHandler() gin.HandlerFunc {
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

		view, err := h.service.Portfolio(c.Request.Context(), userID)
		if err != nil {
			response.InternalError(c, "Failed to fetch portfolio")
			return
		}

		response.Success(c, view)
	}
}
