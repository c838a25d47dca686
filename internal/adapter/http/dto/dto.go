package dto

// CreateAccountRequest is the request body for account provisioning.
type CreateAccountRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50,safe_id"`
	AccountType string `json:"account_type" binding:"required,oneof=personal business"`
}

// CreateAccountResponse is the response body for a freshly provisioned
// account. The token authenticates subsequent requests for this account.
type CreateAccountResponse struct {
	AccountID            string `json:"account_id"`
	Username             string `json:"username"`
	AccountType          string `json:"account_type"`
	TransactionAllowance int    `json:"transaction_allowance"`
	WalletAllowance      int    `json:"wallet_allowance"`
	Token                string `json:"token"`
	TokenExpiry          int64  `json:"token_expiry"` // Unix timestamp
}

// AccountResponse is the response body for the account profile, including
// current-month settlement usage.
type AccountResponse struct {
	AccountID            string `json:"account_id"`
	Username             string `json:"username"`
	AccountType          string `json:"account_type"`
	TransactionAllowance int    `json:"transaction_allowance"`
	WalletAllowance      int    `json:"wallet_allowance"`
	MonthlySettlements   int    `json:"monthly_settlements"`
}

// CreateWalletRequest is the request body for opening a wallet.
type CreateWalletRequest struct {
	Currency string `json:"currency" binding:"required,len=3"`
}

// WalletResponse is the response body for a single wallet.
type WalletResponse struct {
	AccountNumber string `json:"account_number"`
	Currency      string `json:"currency"`
	Balance       string `json:"balance"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

// WalletListResponse wraps the wallets of an account.
type WalletListResponse struct {
	Items []WalletResponse `json:"items"`
	Total int              `json:"total"`
}

// TransferRequest is the request body for a transfer between wallets.
// Amount is a decimal string so binary floats never touch the money path.
type TransferRequest struct {
	SourceAccountNumber      string `json:"source_account_number" binding:"required,iban"`
	DestinationAccountNumber string `json:"destination_account_number" binding:"required,iban"`
	Amount                   string `json:"amount" binding:"required,money"`
}

// TransferResponse is the response body for a committed transfer.
type TransferResponse struct {
	SourceAccountNumber      string `json:"source_account_number"`
	DestinationAccountNumber string `json:"destination_account_number"`
	Amount                   string `json:"amount"`
	ConvertedAmount          string `json:"converted_amount"`
	EffectiveRate            string `json:"effective_rate"`
	Spread                   string `json:"spread"`
	BrokerFee                string `json:"broker_fee"`
	SourceBalance            string `json:"source_balance"`
	DestinationBalance       string `json:"destination_balance"`
}

// EstimateResponse is the response body for a transfer preview.
type EstimateResponse struct {
	Spread          string `json:"spread"`
	EffectiveRate   string `json:"effective_rate"`
	ConvertedAmount string `json:"converted_amount"`
}

// DepositRequest is the request body for a wallet deposit.
type DepositRequest struct {
	Amount string `json:"amount" binding:"required,money"`
}

// TransactionResponse is the response body for one ledger entry.
type TransactionResponse struct {
	ID                       string `json:"id"`
	SourceAccountNumber      string `json:"source_account_number"`
	SourceCurrency           string `json:"source_currency"`
	DestinationAccountNumber string `json:"destination_account_number"`
	DestinationCurrency      string `json:"destination_currency"`
	Amount                   string `json:"amount"`
	Rate                     string `json:"rate"`
	ResultAmount             string `json:"result_amount"`
	Visibility               string `json:"visibility"`
	CreatedAt                string `json:"created_at"`
}

// TransactionListResponse wraps a wallet's visible history.
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Total int                   `json:"total"`
}

// RateResponse is the response body for one published exchange rate.
type RateResponse struct {
	Currency string `json:"currency"`
	Date     string `json:"date"`
	Rate     string `json:"rate"`
}

// RateListResponse wraps the published rates.
type RateListResponse struct {
	Items []RateResponse `json:"items"`
}
