package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/server/http/dto"
)

// CartHandler serves the caller's cart.
type CartHandler struct {
	facade CartFacade
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(facade CartFacade) *CartHandler {
	return &CartHandler{facade: facade}
}

// View handles GET /cart.
func (h *CartHandler) View(c *gin.Context) {
	cart, err := h.facade.Cart(c.Request.Context(), CurrentActor(c))
	h.respond(c, http.StatusOK, cart, err)
}

// AddItem handles POST /cart/items.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cart, err := h.facade.AddCartItem(c.Request.Context(), CurrentActor(c), req.ProductID, req.ColorID, req.Quantity)
	h.respond(c, http.StatusCreated, cart, err)
}

// UpdateItem handles PATCH /cart/items/:line_id.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	lineID, ok := pathID(c, "line_id")
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cart, err := h.facade.UpdateCartItem(c.Request.Context(), CurrentActor(c), lineID, *req.Quantity)
	h.respond(c, http.StatusOK, cart, err)
}

// RemoveItem handles DELETE /cart/items/:line_id.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	lineID, ok := pathID(c, "line_id")
	if !ok {
		return
	}
	cart, err := h.facade.RemoveCartItem(c.Request.Context(), CurrentActor(c), lineID)
	h.respond(c, http.StatusOK, cart, err)
}

// ApplyCoupon handles POST /cart/coupon.
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	var req dto.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cart, err := h.facade.ApplyCoupon(c.Request.Context(), CurrentActor(c), req.Code)
	h.respond(c, http.StatusOK, cart, err)
}

func (h *CartHandler) respond(c *gin.Context, status int, cart *model.Cart, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, toCartResponse(cart))
}
