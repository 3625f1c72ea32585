package types

// TradeResult is returned by the trade submission endpoint so the caller can
// refresh its displayed balance and holdings without a second fetch.
type TradeResult struct {
	UpdatedBalance   float64   `json:"updatedBalance"`
	UpdatedPortfolio []Holding `json:"updatedPortfolio"`
}

// HistoryResponse wraps the (possibly filtered and sorted) account ledger.
type HistoryResponse struct {
	Transactions []Transaction `json:"transactions"`
}
