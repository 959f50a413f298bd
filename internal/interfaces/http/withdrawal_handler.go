package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/application/withdrawal"
)

// WithdrawalHandler maneja las peticiones HTTP del motor de retiros.
type WithdrawalHandler struct {
	uc *withdrawal.UseCase
}

// NewWithdrawalHandler construye el handler.
func NewWithdrawalHandler(uc *withdrawal.UseCase) *WithdrawalHandler {
	return &WithdrawalHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar un retiro multi-producto (atómico)
// @Tags         withdrawals
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateWithdrawalRequest  true  "identidad de quien retira, destinatario y líneas"
// @Success      201   {object}  dto.WithdrawalResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/withdrawals [post]
func (h *WithdrawalHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateWithdrawalRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	w, err := h.uc.Submit(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromWithdrawal(w))
}

// List godoc
// @Summary      Listar retiros (más recientes primero, con líneas)
// @Tags         withdrawals
// @Produce      json
// @Success      200  {array}  dto.WithdrawalResponse
// @Router       /api/withdrawals [get]
func (h *WithdrawalHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	list, err := h.uc.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.WithdrawalResponse, 0, len(list))
	for _, w := range list {
		out = append(out, dto.FromWithdrawal(w))
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener un retiro por ID
// @Tags         withdrawals
// @Produce      json
// @Param        id   path      int  true  "ID del retiro"
// @Success      200  {object}  dto.WithdrawalResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/withdrawals/{id} [get]
func (h *WithdrawalHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	w, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromWithdrawal(w))
}

// Reverse godoc
// @Summary      Revertir un retiro: restaura stock y elimina registro y líneas
// @Tags         withdrawals
// @Param        id  path  int  true  "ID del retiro"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/withdrawals/{id} [delete]
func (h *WithdrawalHandler) Reverse(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.uc.Reverse(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
