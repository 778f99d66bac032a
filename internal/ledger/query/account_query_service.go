package query

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hisabapp/hisab/internal/cqrs"
	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/ledger/repository"
	"github.com/hisabapp/hisab/internal/models"
)

// DefaultRecentLimit is how many transactions the dashboard shows per account.
const DefaultRecentLimit = 5

// AccountQueryService reads accounts and computes balances at call time.
type AccountQueryService struct {
	reader repository.LedgerReader
}

func NewAccountQueryService(reader repository.LedgerReader) *AccountQueryService {
	return &AccountQueryService{reader: reader}
}

// AccountDetails is one account with all of its transactions, newest first.
type AccountDetails struct {
	Account      *models.Account
	Transactions []models.Transaction
	Total        decimal.Decimal
}

// AccountSummary is a dashboard entry.
type AccountSummary struct {
	Account models.Account
	Total   decimal.Decimal
	Recent  []models.Transaction
}

type Dashboard struct {
	Accounts []AccountSummary
	Total    decimal.Decimal
}

// TotalFor is the exact sum of the account's transaction amounts.
func (s *AccountQueryService) TotalFor(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	return s.reader.SumByAccount(ctx, accountID)
}

// OverallTotalFor sums every transaction of every account owned by userID.
func (s *AccountQueryService) OverallTotalFor(ctx context.Context, userID string) (decimal.Decimal, error) {
	return s.reader.SumByUser(ctx, userID)
}

func (s *AccountQueryService) OverallBalance(ctx context.Context, q cqrs.OverallBalanceQuery) (decimal.Decimal, error) {
	return s.OverallTotalFor(ctx, q.UserID)
}

// GetAccountDetails enforces ownership; an account of another user is
// reported exactly like a missing one.
func (s *AccountQueryService) GetAccountDetails(ctx context.Context, q cqrs.GetAccountQuery) (*AccountDetails, error) {
	account, err := s.reader.GetAccount(ctx, q.AccountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != q.RequestingUserID {
		return nil, errs.ErrNotFound
	}

	txs, err := s.reader.ListTransactions(ctx, account.ID, 0)
	if err != nil {
		return nil, err
	}
	total, err := s.TotalFor(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	return &AccountDetails{Account: account, Transactions: txs, Total: total}, nil
}

// Dashboard lists the user's accounts, most recently updated first, each with
// its total and latest transactions.
func (s *AccountQueryService) Dashboard(ctx context.Context, q cqrs.DashboardQuery) (*Dashboard, error) {
	limit := q.RecentLimit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	accounts, err := s.reader.ListAccountsByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{Accounts: make([]AccountSummary, 0, len(accounts))}
	for _, a := range accounts {
		total, err := s.TotalFor(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		recent, err := s.reader.ListTransactions(ctx, a.ID, limit)
		if err != nil {
			return nil, err
		}
		dash.Accounts = append(dash.Accounts, AccountSummary{Account: a, Total: total, Recent: recent})
	}

	dash.Total, err = s.OverallTotalFor(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	return dash, nil
}
