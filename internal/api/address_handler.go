package api

import (
	"net/http"

	"lokapasar-be/internal/address"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type addressHandler struct {
	addresses address.Service
}

func (h *addressHandler) List(c *gin.Context) {
	addrs, err := h.addresses.List(c.Request.Context(), identityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, addrs)
}

type saveAddressRequest struct {
	AddressID *uuid.UUID `json:"address_id"`
	Name      string     `json:"name" binding:"required"`
	Phone     string     `json:"phone" binding:"required"`
	Label     *string    `json:"label"`
	Street    string     `json:"street" binding:"required"`
	Street2   *string    `json:"street2"`
	City      string     `json:"city" binding:"required"`
	Province  string     `json:"province" binding:"required"`
	Postal    string     `json:"postal" binding:"required"`
	Country   string     `json:"country" binding:"required"`
	Default   bool       `json:"set_as_default"`
}

func (h *addressHandler) Save(c *gin.Context) {
	var req saveAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	saved, err := h.addresses.Save(c.Request.Context(), identityFrom(c), address.SaveAddressInput{
		AddressID:    req.AddressID,
		Name:         req.Name,
		Phone:        req.Phone,
		Label:        req.Label,
		Street:       req.Street,
		Street2:      req.Street2,
		City:         req.City,
		Province:     req.Province,
		Postal:       req.Postal,
		Country:      req.Country,
		SetAsDefault: req.Default,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if req.AddressID != nil {
		status = http.StatusOK
	}
	c.JSON(status, saved)
}

func (h *addressHandler) Delete(c *gin.Context) {
	addressID, err := uuid.Parse(c.Param("addressID"))
	if err != nil {
		respondError(c, address.ErrNotFound)
		return
	}

	if err := h.addresses.Delete(c.Request.Context(), identityFrom(c), addressID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *addressHandler) SetDefault(c *gin.Context) {
	addressID, err := uuid.Parse(c.Param("addressID"))
	if err != nil {
		respondError(c, address.ErrNotFound)
		return
	}

	if err := h.addresses.SetDefault(c.Request.Context(), identityFrom(c), addressID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
