package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleStatusPendiente = "PENDIENTE"
	SaleStatusFacturada = "FACTURADA"
	SaleStatusAnulada   = "ANULADA"
)

// SaleLineItem línea de venta. Nombre, precio e IVA son una copia del producto
// al momento de agregarlo, no una referencia viva.
type SaleLineItem struct {
	ProductID string
	Name      string
	Quantity  int
	Price     decimal.Decimal
	TaxRate   decimal.Decimal
	Subtotal  decimal.Decimal // Price × Quantity
}

// NewLineItem construye la línea calculando su subtotal.
func NewLineItem(productID, name string, quantity int, price, taxRate decimal.Decimal) SaleLineItem {
	return SaleLineItem{
		ProductID: productID,
		Name:      name,
		Quantity:  quantity,
		Price:     price,
		TaxRate:   taxRate,
		Subtotal:  price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// Tax impuesto de la línea (Subtotal × TaxRate) sin redondear.
func (l SaleLineItem) Tax() decimal.Decimal {
	return l.Subtotal.Mul(l.TaxRate)
}

// Totals totales derivados de un conjunto de líneas.
type Totals struct {
	Subtotal decimal.Decimal
	TaxTotal decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals suma subtotales e impuestos por línea. El impuesto se calcula
// línea a línea para admitir tasas mixtas; no se redondea.
func ComputeTotals(items []SaleLineItem) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal)
		tax = tax.Add(it.Tax())
	}
	return Totals{Subtotal: subtotal, TaxTotal: tax, Total: subtotal.Add(tax)}
}

// Sale venta registrada en el libro de ventas.
type Sale struct {
	ID        string
	Number    string // V-000001
	Date      time.Time
	ClientID  string
	SellerID  string
	Items     []SaleLineItem
	Subtotal  decimal.Decimal
	TaxTotal  decimal.Decimal
	Total     decimal.Decimal
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasProduct indica si alguna línea referencia el producto.
func (s *Sale) HasProduct(productID string) bool {
	for _, it := range s.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// FormatSaleNumber formatea el consecutivo como V-NNNNNN.
func FormatSaleNumber(seq int64) string {
	return fmt.Sprintf("V-%06d", seq)
}

// SaleFilter criterios de listado de ventas.
type SaleFilter struct {
	Search   string // número de venta o nombre del cliente
	Status   string
	ClientID string
}
