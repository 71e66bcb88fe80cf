package controllers

import (
	"strconv"

	"github.com/food-bundles/food-bundles-bn-sub000/entity"
	"github.com/food-bundles/food-bundles-bn-sub000/pkg/resp"
	"github.com/food-bundles/food-bundles-bn-sub000/services"
	"github.com/food-bundles/food-bundles-bn-sub000/utils"
	"github.com/gin-gonic/gin"
)

type OrderController struct {
	Svc *services.OrderService
}

func NewOrderController(svc *services.OrderService) *OrderController {
	return &OrderController{Svc: svc}
}

func orderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		resp.BadRequest(c, "invalid order id")
		return 0, false
	}
	return uint(id), true
}

// GET /orders
func (ctl *OrderController) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	orders, err := ctl.Svc.ListForUser(utils.CurrentUserID(c), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, orders)
}

// GET /orders/:id
func (ctl *OrderController) Detail(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	detail, err := ctl.Svc.DetailForUser(utils.CurrentUserID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, detail)
}

// PATCH /orders/:id/status
func (ctl *OrderController) UpdateStatus(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req struct {
		Status entity.OrderStatus `json:"status" binding:"required,oneof=CONFIRMED PREPARING READY IN_TRANSIT DELIVERED"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	if err := ctl.Svc.Advance(utils.CurrentUserID(c), id, req.Status); err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, gin.H{"status": req.Status})
}

// POST /orders/:id/cancel
func (ctl *OrderController) Cancel(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	if err := ctl.Svc.Cancel(utils.CurrentUserID(c), id); err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, gin.H{"status": entity.OrderCancelled})
}

// POST /orders/:id/refund  (admin)
func (ctl *OrderController) Refund(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	if err := ctl.Svc.Refund(utils.CurrentRole(c), id); err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, gin.H{"status": entity.OrderRefunded})
}

// DELETE /orders/:id — only CANCELLED orders may go
func (ctl *OrderController) Delete(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	if err := ctl.Svc.Delete(utils.CurrentUserID(c), id); err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, gin.H{"deleted": true})
}
