package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountType selects the monthly transaction and wallet allowances.
type AccountType string

const (
	AccountTypePersonal AccountType = "personal"
	AccountTypeBusiness AccountType = "business"
)

// Allowances returns (transaction allowance per calendar month, wallet
// allowance) for the account type.
func (t AccountType) Allowances() (transactions int, wallets int) {
	if t == AccountTypeBusiness {
		return 100, 50
	}
	return 10, 5
}

// Account is the owner of a set of wallets. Identity and authentication
// live outside this service; an account row only carries what settlement
// needs: its tier and the allowances derived from it.
type Account struct {
	ID                   uuid.UUID   `json:"id"`
	Username             string      `json:"username"`
	Type                 AccountType `json:"account_type"`
	TransactionAllowance int         `json:"transaction_allowance"`
	WalletAllowance      int         `json:"wallet_allowance"`
	CreatedAt            time.Time   `json:"created_at"`
}
