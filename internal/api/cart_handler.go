package api

import (
	"net/http"

	"lokapasar-be/internal/cart"
	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/promo"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type cartHandler struct {
	carts  cart.Service
	promos promo.Service
}

func identityFrom(c *gin.Context) identity.Identity {
	id, _ := identity.FromContext(c.Request.Context())
	return id
}

type cartView struct {
	*cart.Snapshot
	Promo *promo.Applied `json:"promo,omitempty"`
}

// GetCart returns the grouped snapshot plus the recomputed promo discount.
// The discount is derived here, never read from storage, so it always
// matches the current subtotal.
func (h *cartHandler) GetCart(c *gin.Context) {
	id := identityFrom(c)

	snap, err := h.carts.GetCart(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	applied, err := h.promos.Evaluate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cartView{Snapshot: snap, Promo: applied})
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required"`
}

func (h *cartHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	item, err := h.carts.AddItem(c.Request.Context(), identityFrom(c), cart.AddItemParams{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *cartHandler) UpdateQuantity(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		respondError(c, cart.ErrProductNotFound)
		return
	}

	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	err = h.carts.UpdateQuantity(c.Request.Context(), identityFrom(c), cart.UpdateQuantityParams{
		ProductID: productID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *cartHandler) RemoveItem(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		respondError(c, cart.ErrProductNotFound)
		return
	}

	if err := h.carts.Remove(c.Request.Context(), identityFrom(c), productID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *cartHandler) Clear(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), identityFrom(c)); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type applyPromoRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *cartHandler) ApplyPromo(c *gin.Context) {
	var req applyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	applied, err := h.promos.Apply(c.Request.Context(), identityFrom(c), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, applied)
}

func (h *cartHandler) RemovePromo(c *gin.Context) {
	if err := h.promos.Remove(c.Request.Context(), identityFrom(c)); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
