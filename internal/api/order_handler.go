package api

import (
	"net/http"
	"strconv"

	"lokapasar-be/internal/order"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type orderHandler struct {
	orders order.Service
}

func (h *orderHandler) List(c *gin.Context) {
	filter := order.ListFilter{}

	if s := c.Query("status"); s != "" {
		status := order.Status(s)
		filter.Status = &status
	}
	if v, err := strconv.ParseInt(c.Query("limit"), 10, 32); err == nil {
		filter.Limit = int32(v)
	}
	if v, err := strconv.ParseInt(c.Query("page"), 10, 32); err == nil {
		filter.Page = int32(v)
	}

	orders, err := h.orders.List(c.Request.Context(), identityFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *orderHandler) Detail(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		respondError(c, order.ErrOrderNotFound)
		return
	}

	detail, err := h.orders.GetDetail(c.Request.Context(), identityFrom(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}
