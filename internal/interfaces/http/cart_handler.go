package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billy-api/internal/application/dto"
	"github.com/jhoicas/billy-api/internal/application/usecase"
)

// CartHandler carrito del usuario autenticado.
type CartHandler struct {
	uc *usecase.CartUseCase
}

// NewCartHandler construye el handler.
func NewCartHandler(uc *usecase.CartUseCase) *CartHandler {
	return &CartHandler{uc: uc}
}

// Get godoc
// @Summary      Carrito actual
// @Tags         carrito
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CartResponse
// @Router       /api/carrito [get]
func (h *CartHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.uc.Get(GetUserID(c)))
}

// Clear godoc
// @Summary      Vaciar carrito
// @Tags         carrito
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CartResponse
// @Router       /api/carrito [delete]
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	return c.JSON(h.uc.Clear(GetUserID(c)))
}

// SelectClient godoc
// @Summary      Seleccionar cliente
// @Tags         carrito
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CartClientRequest  true  "clienteId"
// @Success      200   {object}  dto.CartResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/carrito/cliente [put]
func (h *CartHandler) SelectClient(c *fiber.Ctx) error {
	var in dto.CartClientRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.SelectClient(c.UserContext(), GetUserID(c), in.ClienteID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AddItem godoc
// @Summary      Agregar producto
// @Description  Si el producto ya está en el carrito se suma la cantidad.
// @Tags         carrito
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CartAddItemRequest  true  "productId, cantidad"
// @Success      200   {object}  dto.CartResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/carrito/items [post]
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var in dto.CartAddItemRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.AddItem(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetQuantity PATCH /api/carrito/items/:productId; cantidad 0 quita la línea.
func (h *CartHandler) SetQuantity(c *fiber.Ctx) error {
	var in dto.CartQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.SetQuantity(GetUserID(c), c.Params("productId"), in.Cantidad)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RemoveItem DELETE /api/carrito/items/:productId
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	return c.JSON(h.uc.RemoveItem(GetUserID(c), c.Params("productId")))
}

// Checkout godoc
// @Summary      Registrar la venta del carrito
// @Tags         carrito
// @Security     Bearer
// @Produce      json
// @Success      201  {object}  dto.SaleResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/carrito/checkout [post]
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	out, err := h.uc.Checkout(c.UserContext(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
