package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billy-api/internal/application/billing"
	"github.com/jhoicas/billy-api/internal/application/dto"
	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// BillingHandler emisión y consulta de DTEs.
type BillingHandler struct {
	issuance *billing.IssuanceService
	query    *billing.InvoiceQuery
	docs     *billing.DocumentUseCase
}

// NewBillingHandler construye el handler.
func NewBillingHandler(issuance *billing.IssuanceService, query *billing.InvoiceQuery, docs *billing.DocumentUseCase) *BillingHandler {
	return &BillingHandler{issuance: issuance, query: query, docs: docs}
}

// Issue godoc
// @Summary      Emitir DTE de una venta
// @Description  200 con el DTE ACEPTADO o RECHAZADO; 202 si la autoridad no respondió (reintentable).
// @Tags         facturacion
// @Security     Bearer
// @Produce      json
// @Param        ventaId  path  string  true  "ID de la venta"
// @Success      200  {object}  dto.InvoiceEnvelope
// @Success      202  {object}  dto.InvoiceEnvelope
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/facturacion/{ventaId}/dte [post]
func (h *BillingHandler) Issue(c *fiber.Ctx) error {
	res, err := h.issuance.IssueInvoice(c.UserContext(), c.Params("ventaId"), actorFrom(c))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			return respond(c, fiber.StatusBadRequest, "INVALID_STATE", "La venta ya fue procesada")
		}
		return writeError(c, err)
	}
	status := fiber.StatusOK
	if errors.Is(res.Invoice.Err(), domain.ErrAuthorityUnavailable) {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(dto.InvoiceEnvelope{DTE: dto.FromInvoice(res.Invoice)})
}

// Latest godoc
// @Summary      Último DTE de una venta
// @Tags         facturacion
// @Security     Bearer
// @Produce      json
// @Param        ventaId  path  string  true  "ID de la venta"
// @Success      200  {object}  dto.InvoiceEnvelope
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/facturacion/{ventaId}/dte [get]
func (h *BillingHandler) Latest(c *fiber.Ctx) error {
	v, err := h.query.LatestForSale(c.UserContext(), c.Params("ventaId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.InvoiceEnvelope{DTE: dto.FromInvoice(v.Invoice)})
}

// Attempts godoc
// @Summary      Intentos de emisión de una venta
// @Tags         facturacion
// @Security     Bearer
// @Produce      json
// @Param        ventaId  path  string  true  "ID de la venta"
// @Success      200  {object}  dto.InvoiceListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/facturacion/{ventaId}/dtes [get]
func (h *BillingHandler) Attempts(c *fiber.Ctx) error {
	list, err := h.query.AttemptsForSale(c.UserContext(), c.Params("ventaId"))
	if err != nil {
		return writeError(c, err)
	}
	out := dto.InvoiceListResponse{DTEs: make([]dto.InvoiceDetailResponse, 0, len(list))}
	for _, inv := range list {
		out.DTEs = append(out.DTEs, dto.InvoiceDetailResponse{InvoiceResponse: dto.FromInvoice(inv)})
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar DTEs
// @Tags         facturacion
// @Security     Bearer
// @Produce      json
// @Param        estado  query  string  false  "ACEPTADO | RECHAZADO | PENDIENTE"
// @Success      200  {object}  dto.InvoiceListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/facturacion/dtes [get]
func (h *BillingHandler) List(c *fiber.Ctx) error {
	views, err := h.query.List(c.UserContext(), entity.InvoiceFilter{
		AuthorityStatus: c.Query("estado"),
		SaleID:          c.Query("ventaId"),
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.InvoiceListResponse{DTEs: make([]dto.InvoiceDetailResponse, 0, len(views))}
	for _, v := range views {
		d := dto.InvoiceDetailResponse{InvoiceResponse: dto.FromInvoice(v.Invoice)}
		if v.Sale != nil {
			s := dto.FromSale(v.Sale, nil, nil)
			d.Venta = &s
		}
		if v.Client != nil {
			cl := dto.FromClient(v.Client)
			d.Cliente = &cl
		}
		out.DTEs = append(out.DTEs, d)
	}
	return c.JSON(out)
}

// DownloadXML godoc
// @Summary      Descargar XML del DTE
// @Tags         dte
// @Security     Bearer
// @Produce      application/xml
// @Param        id   path  string  true  "ID del DTE"
// @Success      200  {file}  file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/dte/{id}/xml [get]
func (h *BillingHandler) DownloadXML(c *fiber.Ctx) error {
	body, filename, err := h.docs.DownloadInvoiceXML(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	c.Attachment(filename)
	return c.Send(body)
}

// DownloadPDF godoc
// @Summary      Descargar PDF del DTE
// @Description  Solo disponible para DTEs aceptados.
// @Tags         dte
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del DTE"
// @Success      200  {file}  file
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/dte/{id}/pdf [get]
func (h *BillingHandler) DownloadPDF(c *fiber.Ctx) error {
	body, filename, err := h.docs.DownloadInvoicePDF(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Attachment(filename)
	return c.Send(body)
}
