package market

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/stocksaga/stocksaga-api/pkg/response"
)

// GinHandlers contains HTTP handlers for the stock lookup endpoints
type GinHandlers struct {
	client *Client
}

func NewGinHandlers(client *Client) *GinHandlers {
	return &GinHandlers{client: client}
}

// PriceHandler handles GET requests for a single current price. An unknown
// symbol is a 404, not a server error, so portfolio callers can fail soft.
func (h *GinHandlers) PriceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := c.Query("symbol")
		if symbol == "" {
			response.BadRequest(c, "symbol query parameter is required")
			return
		}

		price, err := h.client.Price(c.Request.Context(), symbol)
		if err != nil {
			if errors.Is(err, ErrSymbolNotFound) {
				response.NotFound(c, "No stock found for the entered symbol")
				return
			}
			response.InternalError(c, "Failed to fetch stock price")
			return
		}

		response.Success(c, gin.H{"symbol": symbol, "price": price})
	}
}

// SearchHandler handles GET requests for free-text symbol search.
func (h *GinHandlers) SearchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			response.BadRequest(c, "q query parameter is required")
			return
		}

		results, err := h.client.Search(c.Request.Context(), query)
		if err != nil {
			response.InternalError(c, "Failed to search stocks")
			return
		}

		response.Success(c, gin.H{"result": results})
	}
}

// DetailHandler handles GET requests for the stock detail view, combining
// the current quote with the company profile.
func (h *GinHandlers) DetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := c.Param("symbol")

		quote, err := h.client.Quote(c.Request.Context(), symbol)
		if err != nil {
			if errors.Is(err, ErrSymbolNotFound) {
				response.NotFound(c, "No stock data available for this symbol")
				return
			}
			response.InternalError(c, "Failed to fetch stock details")
			return
		}

		profile, err := h.client.Profile(c.Request.Context(), symbol)
		if err != nil {
			response.InternalError(c, "Failed to fetch company profile")
			return
		}

		response.Success(c, gin.H{"quote": quote, "profile": profile})
	}
}
