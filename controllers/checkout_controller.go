package controllers

import (
	"strconv"

	"github.com/food-bundles/food-bundles-bn-sub000/payments"
	"github.com/food-bundles/food-bundles-bn-sub000/pkg/resp"
	"github.com/food-bundles/food-bundles-bn-sub000/services"
	"github.com/food-bundles/food-bundles-bn-sub000/utils"
	"github.com/gin-gonic/gin"
)

type CheckoutController struct {
	Svc *services.CheckoutService
}

func NewCheckoutController(svc *services.CheckoutService) *CheckoutController {
	return &CheckoutController{Svc: svc}
}

type cardDetailsIn struct {
	Number      string `json:"cardNumber" binding:"required"`
	CVV         string `json:"cvv" binding:"required"`
	ExpiryMonth string `json:"expiryMonth" binding:"required"`
	ExpiryYear  string `json:"expiryYear" binding:"required"`
	Pin         string `json:"pin"`
}

type paymentIn struct {
	PaymentMethod string         `json:"paymentMethod" binding:"required,oneof=MOBILE_MONEY CARD BANK_TRANSFER CASH"`
	PhoneNumber   string         `json:"phoneNumber"`
	CardDetails   *cardDetailsIn `json:"cardDetails"`
}

func (in *paymentIn) method() (payments.Method, error) {
	switch in.PaymentMethod {
	case "MOBILE_MONEY":
		if in.PhoneNumber == "" {
			return nil, errMissing("phoneNumber is required for mobile money")
		}
		return payments.MobileMoney{Phone: in.PhoneNumber}, nil
	case "CARD":
		if in.CardDetails == nil {
			return nil, errMissing("cardDetails is required for card payment")
		}
		return payments.Card{
			Number:      in.CardDetails.Number,
			CVV:         in.CardDetails.CVV,
			ExpiryMonth: in.CardDetails.ExpiryMonth,
			ExpiryYear:  in.CardDetails.ExpiryYear,
			Pin:         in.CardDetails.Pin,
		}, nil
	case "BANK_TRANSFER":
		return payments.BankTransfer{}, nil
	default:
		return payments.Cash{}, nil
	}
}

type missingFieldError string

func (e missingFieldError) Error() string { return string(e) }

func errMissing(msg string) error { return missingFieldError(msg) }

type createCheckoutReq struct {
	CartID  uint               `json:"cartId" binding:"required"`
	Billing services.BillingIn `json:"billing" binding:"required"`
	paymentIn
}

// POST /checkouts
func (ctl *CheckoutController) Create(c *gin.Context) {
	var req createCheckoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	method, err := req.method()
	if err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	out, err := ctl.Svc.CreateCheckout(c.Request.Context(), utils.CurrentUserID(c), services.CreateCheckoutIn{
		CartID:  req.CartID,
		Billing: req.Billing,
		Method:  method,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, out)
}

// POST /checkouts/:orderId/payment
func (ctl *CheckoutController) ProcessPayment(c *gin.Context) {
	checkoutID, err := strconv.ParseUint(c.Param("orderId"), 10, 64)
	if err != nil {
		resp.BadRequest(c, "invalid checkout id")
		return
	}
	var req paymentIn
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	method, err := req.method()
	if err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	out, err := ctl.Svc.ProcessPayment(c.Request.Context(), utils.CurrentUserID(c), uint(checkoutID), method)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, out)
}

// GET /checkouts/:orderId/verify-payment?transactionId=
func (ctl *CheckoutController) VerifyPayment(c *gin.Context) {
	checkoutID, err := strconv.ParseUint(c.Param("orderId"), 10, 64)
	if err != nil {
		resp.BadRequest(c, "invalid checkout id")
		return
	}

	out, err := ctl.Svc.VerifyPayment(c.Request.Context(), utils.CurrentUserID(c), uint(checkoutID), c.Query("transactionId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, out)
}
