package controllers

import (
	"strconv"

	"github.com/food-bundles/food-bundles-bn-sub000/pkg/resp"
	"github.com/food-bundles/food-bundles-bn-sub000/services"
	"github.com/food-bundles/food-bundles-bn-sub000/utils"
	"github.com/gin-gonic/gin"
)

type CartController struct {
	Svc *services.CartService
}

func NewCartController(svc *services.CartService) *CartController {
	return &CartController{Svc: svc}
}

func (ctl *CartController) Get(c *gin.Context) {
	cart, err := ctl.Svc.Get(utils.CurrentUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, cart)
}

func (ctl *CartController) Add(c *gin.Context) {
	var in services.AddToCartIn
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	if err := ctl.Svc.Add(utils.CurrentUserID(c), &in); err != nil {
		writeServiceError(c, err)
		return
	}
	cart, err := ctl.Svc.Get(utils.CurrentUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, cart)
}

func (ctl *CartController) UpdateQty(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		resp.BadRequest(c, "invalid item id")
		return
	}
	var in struct {
		Qty int `json:"qty" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	if err := ctl.Svc.UpdateQty(utils.CurrentUserID(c), uint(itemID), in.Qty); err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, gin.H{"updated": true})
}

func (ctl *CartController) Remove(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		resp.BadRequest(c, "invalid item id")
		return
	}
	if err := ctl.Svc.RemoveItem(utils.CurrentUserID(c), uint(itemID)); err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, gin.H{"removed": true})
}

func (ctl *CartController) Clear(c *gin.Context) {
	if err := ctl.Svc.Clear(utils.CurrentUserID(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	resp.OK(c, gin.H{"cleared": true})
}
