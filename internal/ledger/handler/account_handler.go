package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hisabapp/hisab/internal/cqrs"
	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/ledger/command"
	"github.com/hisabapp/hisab/internal/ledger/query"
	"github.com/hisabapp/hisab/internal/middleware"
	"github.com/hisabapp/hisab/internal/models"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) (*command.CreateAccountResult, error)
	UpdateAccount(context.Context, cqrs.UpdateAccountCommand) (*command.UpdateAccountResult, error)
	ApplyTransactions(context.Context, cqrs.ApplyTransactionsCommand) (*command.BatchResult, error)
	DeleteAccount(context.Context, cqrs.DeleteAccountCommand) (*command.DeleteAccountResult, error)
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	GetAccountDetails(context.Context, cqrs.GetAccountQuery) (*query.AccountDetails, error)
	Dashboard(context.Context, cqrs.DashboardQuery) (*query.Dashboard, error)
	OverallBalance(context.Context, cqrs.OverallBalanceQuery) (decimal.Decimal, error)
}

// AccountHandler handles account, transaction and balance HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
	currency string
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier, currency string) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries, currency: currency}
}

type InitialBatchResponse struct {
	Applied           bool                         `json:"applied"`
	Affected          int                          `json:"affected"`
	TransactionErrors map[string][]errs.FieldError `json:"transactionErrors,omitempty"`
}

type CreateAccountResponse struct {
	Account      models.AccountView   `json:"account"`
	Total        models.TotalView     `json:"total"`
	InitialBatch InitialBatchResponse `json:"initialBatch"`
}

type AccountDetailsResponse struct {
	Account      models.AccountView       `json:"account"`
	Transactions []models.TransactionView `json:"transactions"`
	Total        models.TotalView         `json:"total"`
}

type UpdateAccountResponse struct {
	Account  models.AccountView `json:"account"`
	Affected int                `json:"affected"`
	Total    models.TotalView   `json:"total"`
}

type BatchResponse struct {
	Affected int              `json:"affected"`
	Total    models.TotalView `json:"total"`
}

type DeleteAccountResponse struct {
	ID                  int64 `json:"id"`
	DeletedTransactions int64 `json:"deletedTransactions"`
}

type DashboardAccount struct {
	Account            models.AccountView       `json:"account"`
	Total              models.TotalView         `json:"total"`
	RecentTransactions []models.TransactionView `json:"recentTransactions"`
}

type DashboardResponse struct {
	Accounts []DashboardAccount `json:"accounts"`
	Total    models.TotalView   `json:"total"`
}

type BalanceResponse struct {
	Total models.TotalView `json:"total"`
}

const accountNotFound = "Account not found"

func accountID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("accountId"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(c, http.StatusNotFound, accountNotFound)
		return 0, false
	}
	return id, true
}

func (h *AccountHandler) total(d decimal.Decimal) models.TotalView {
	return models.NewTotalView(d, h.currency)
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	res, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{
		UserID: userID,
		Fields: cqrs.AccountFields{
			Name:             req.Name,
			Email:            req.Email,
			Mobile:           req.Mobile,
			ReminderInterval: req.ReminderInterval,
		},
		Transactions: toIntents(req.Transactions),
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, accountNotFound, "Failed to create account")
		return
	}

	resp := CreateAccountResponse{
		Account: models.NewAccountView(res.Account),
		Total:   h.total(res.Total),
		InitialBatch: InitialBatchResponse{
			Applied:  res.InitialBatch.Applied,
			Affected: res.InitialBatch.Affected,
		},
	}
	if be := res.InitialBatch.Errors; be != nil {
		resp.InitialBatch.TransactionErrors = make(map[string][]errs.FieldError, len(be.Intents))
		for i, fe := range be.Intents {
			resp.InitialBatch.TransactionErrors[strconv.Itoa(i)] = fe
		}
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	details, err := h.queries.GetAccountDetails(c.Request.Context(), cqrs.GetAccountQuery{
		AccountID:        id,
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, accountNotFound, "Failed to load account")
		return
	}

	c.JSON(http.StatusOK, AccountDetailsResponse{
		Account:      models.NewAccountView(details.Account),
		Transactions: models.NewTransactionViews(details.Transactions),
		Total:        h.total(details.Total),
	})
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	res, err := h.commands.UpdateAccount(c.Request.Context(), cqrs.UpdateAccountCommand{
		AccountID:        id,
		RequestingUserID: userID,
		Fields:           req.patch(),
		Transactions:     toIntents(req.Transactions),
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, accountNotFound, "Failed to update account")
		return
	}

	c.JSON(http.StatusOK, UpdateAccountResponse{
		Account:  models.NewAccountView(res.Account),
		Affected: res.Affected,
		Total:    h.total(res.Total),
	})
}

func (h *AccountHandler) ApplyTransactions(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	var req ApplyTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	res, err := h.commands.ApplyTransactions(c.Request.Context(), cqrs.ApplyTransactionsCommand{
		AccountID:        id,
		RequestingUserID: userID,
		Transactions:     toIntents(req.Transactions),
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, accountNotFound, "Failed to save transactions")
		return
	}

	c.JSON(http.StatusOK, BatchResponse{Affected: res.Affected, Total: h.total(res.Total)})
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	res, err := h.commands.DeleteAccount(c.Request.Context(), cqrs.DeleteAccountCommand{
		AccountID:        id,
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, accountNotFound, "Failed to delete account")
		return
	}

	c.JSON(http.StatusOK, DeleteAccountResponse{ID: res.AccountID, DeletedTransactions: res.DeletedTransactions})
}

func (h *AccountHandler) Dashboard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	dash, err := h.queries.Dashboard(c.Request.Context(), cqrs.DashboardQuery{
		UserID:      userID,
		RecentLimit: query.DefaultRecentLimit,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, accountNotFound, "Failed to load dashboard")
		return
	}

	resp := DashboardResponse{
		Accounts: make([]DashboardAccount, len(dash.Accounts)),
		Total:    h.total(dash.Total),
	}
	for i, a := range dash.Accounts {
		acct := a.Account
		resp.Accounts[i] = DashboardAccount{
			Account:            models.NewAccountView(&acct),
			Total:              h.total(a.Total),
			RecentTransactions: models.NewTransactionViews(a.Recent),
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) Balance(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	total, err := h.queries.OverallBalance(c.Request.Context(), cqrs.OverallBalanceQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithDomainError(c, err, accountNotFound, "Failed to load balance")
		return
	}
	c.JSON(http.StatusOK, BalanceResponse{Total: h.total(total)})
}

// RegisterRoutes mounts the ledger endpoints on rg. The caller applies
// authentication and the profile gate.
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.Dashboard)
	rg.GET("/balance", h.Balance)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.CreateAccount)
		accounts.GET("/:accountId", h.GetAccount)
		accounts.PATCH("/:accountId", h.UpdateAccount)
		accounts.DELETE("/:accountId", h.DeleteAccount)
		accounts.POST("/:accountId/transactions", h.ApplyTransactions)
	}
}
