package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletTransactionDTO represents a ledger entry for API responses
type WalletTransactionDTO struct {
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Note         string          `json:"note,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// WalletResponse is the body of GET /api/v1/wallet
type WalletResponse struct {
	Balance      decimal.Decimal        `json:"balance"`
	Transactions []WalletTransactionDTO `json:"transactions"`
	Pagination   PaginationInfo         `json:"pagination"`
}

// PaginationInfo contains pagination metadata
type PaginationInfo struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// Normalize clamps limit to 1..100 with a default of 20
func (p *PaginationInfo) Normalize() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// LedgerAudit compares the stored balance with the ledger
type LedgerAudit struct {
	StoredBalance decimal.Decimal `json:"stored_balance"`
	LedgerBalance decimal.Decimal `json:"ledger_balance"`
	Drift         decimal.Decimal `json:"drift"`
	Consistent    bool            `json:"consistent"`
}
