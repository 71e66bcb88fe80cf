package controllers

import (
	"strconv"

	"github.com/food-bundles/food-bundles-bn-sub000/pkg/resp"
	"github.com/food-bundles/food-bundles-bn-sub000/services"
	"github.com/food-bundles/food-bundles-bn-sub000/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type WalletController struct {
	Svc *services.WalletService
}

func NewWalletController(svc *services.WalletService) *WalletController {
	return &WalletController{Svc: svc}
}

// POST /wallets
func (ctl *WalletController) Create(c *gin.Context) {
	var req struct {
		Currency string `json:"currency"`
	}
	_ = c.ShouldBindJSON(&req)

	w, err := ctl.Svc.CreateWallet(utils.CurrentUserID(c), req.Currency)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp.Created(c, w)
}

// GET /wallets/my-wallet
func (ctl *WalletController) MyWallet(c *gin.Context) {
	w, err := ctl.Svc.MyWallet(utils.CurrentUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, w)
}

type topUpReq struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Email  string          `json:"email"`
	Name   string          `json:"name"`
	paymentIn
}

// POST /wallets/top-up
func (ctl *WalletController) TopUp(c *gin.Context) {
	var req topUpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	method, err := req.method()
	if err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	out, err := ctl.Svc.TopUp(c.Request.Context(), utils.CurrentUserID(c), services.TopUpIn{
		Amount: req.Amount,
		Email:  req.Email,
		Name:   req.Name,
		Method: method,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, out)
}

// GET /wallets/transactions
func (ctl *WalletController) Transactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	txns, err := ctl.Svc.ListTransactions(utils.CurrentUserID(c), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, txns)
}

// GET /wallets/verify-topup/:transactionId
func (ctl *WalletController) VerifyTopUp(c *gin.Context) {
	txn, err := ctl.Svc.VerifyTopUp(c.Request.Context(), utils.CurrentUserID(c), c.Param("transactionId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, txn)
}

// POST /wallets/:id/adjust  (admin)
func (ctl *WalletController) Adjust(c *gin.Context) {
	walletID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		resp.BadRequest(c, "invalid wallet id")
		return
	}
	var req struct {
		Amount    decimal.Decimal `json:"amount" binding:"required"`
		Direction string          `json:"direction" binding:"required,oneof=credit debit"`
		Reason    string          `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	txn, err := ctl.Svc.Adjust(uint(walletID), req.Amount, req.Direction == "credit", req.Reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, txn)
}
