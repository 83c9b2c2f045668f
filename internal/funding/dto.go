package funding

// CashRequest captures user-provided data for a mobile money cash-in or
// cash-out.
type CashRequest struct {
	Phone      string `json:"phone"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	ClientTxID string `json:"client_tx_id"`
}

// CashResponse represents the API response for mobile money actions.
type CashResponse struct {
	TransactionID     string `json:"transaction_id"`
	WalletBalance     string `json:"wallet_balance"`
	Currency          string `json:"currency"`
	ProviderReference string `json:"provider_reference"`
}
