package cqrs

// ---------- Identity queries ----------

// GetProfileQuery fetches the profile of the authenticated user.
type GetProfileQuery struct {
	UserID string
}

// ---------- Ledger queries ----------

// GetAccountQuery fetches one account with its transactions and total,
// subject to an ownership check.
type GetAccountQuery struct {
	AccountID        int64
	RequestingUserID string
}

// DashboardQuery lists a user's accounts with totals and recent activity.
type DashboardQuery struct {
	UserID      string
	RecentLimit int
}

// OverallBalanceQuery sums every transaction of every account of a user.
type OverallBalanceQuery struct {
	UserID string
}
