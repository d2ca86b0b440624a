package dte

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// ErrInvalidDocument agrupa errores de validación previos a la emisión.
var ErrInvalidDocument = errors.New("venta inválida para emisión de DTE")

// totalsTolerance diferencia máxima aceptada entre totales declarados y recalculados.
var totalsTolerance = decimal.RequireFromString("0.000001")

// ValidateSale comprueba que la venta y el cliente permiten renderizar el documento:
// al menos una línea, cantidades positivas y totales coherentes con las líneas.
func ValidateSale(sale *entity.Sale, client *entity.Client) error {
	if sale == nil {
		return fmt.Errorf("%w: venta nula", ErrInvalidDocument)
	}
	var errs []error
	if client == nil || client.Name == "" {
		errs = append(errs, fmt.Errorf("receptor sin nombre"))
	}
	if len(sale.Items) == 0 {
		errs = append(errs, fmt.Errorf("la venta debe tener al menos una línea"))
	}
	for i, it := range sale.Items {
		if it.Quantity < 1 {
			errs = append(errs, fmt.Errorf("línea %d: cantidad %d inválida", i+1, it.Quantity))
		}
	}
	tot := entity.ComputeTotals(sale.Items)
	if sale.Subtotal.Sub(tot.Subtotal).Abs().GreaterThan(totalsTolerance) {
		errs = append(errs, fmt.Errorf("subtotal (%s) no coincide con la suma de líneas (%s)", sale.Subtotal, tot.Subtotal))
	}
	if sale.TaxTotal.Sub(tot.TaxTotal).Abs().GreaterThan(totalsTolerance) {
		errs = append(errs, fmt.Errorf("total IVA (%s) no coincide con el IVA por línea (%s)", sale.TaxTotal, tot.TaxTotal))
	}
	if !sale.Total.Equal(sale.Subtotal.Add(sale.TaxTotal)) {
		errs = append(errs, fmt.Errorf("total (%s) no coincide con subtotal + IVA", sale.Total))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidDocument}, errs...)...)
	}
	return nil
}
