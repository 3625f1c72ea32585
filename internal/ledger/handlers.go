package ledger

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stocksaga/stocksaga-api/internal/auth"
	"github.com/stocksaga/stocksaga-api/internal/types"
	"github.com/stocksaga/stocksaga-api/pkg/response"
	"gorm.io/gorm"
)

// Service serves the transaction history view.
type Service struct {
	db *Database
}

func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: NewDatabase(gormDB)}
}

// History fetches the account ledger and derives the requested view from it.
func (s *Service) History(userID uint, criteria FilterCriteria, spec SortSpec) ([]types.Transaction, error) {
	source, err := s.db.History(userID)
	if err != nil {
		return nil, err
	}
	return Sort(Filter(source, criteria), spec), nil
}

// GinHandlers contains HTTP handlers for the transaction history endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// HistoryHandler handles GET requests for the account transaction history.
// Filter and sort parameters arrive as query strings; malformed bounds are
// ignored rather than rejected, so one bad field never empties the view.
// A "days" parameter applies the quick range over the last N calendar days,
// overriding any explicit date bounds.
func (h *GinHandlers) HistoryHandler() gin.HandlerFunc {
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

		var criteria FilterCriteria
		if err := c.ShouldBindQuery(&criteria); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if days, err := strconv.Atoi(c.Query("days")); err == nil && days > 0 {
			criteria.QuickRange(days)
		}

		var spec SortSpec
		if err := c.ShouldBindQuery(&spec); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		txns, err := h.service.History(userID, criteria, spec)
		if err != nil {
			response.InternalError(c, "Failed to fetch transaction history")
			return
		}

		response.Success(c, types.HistoryResponse{Transactions: txns})
	}
}
