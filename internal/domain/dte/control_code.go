// Package dte: código de control del Documento Tributario Electrónico.
// Algoritmo: SHA-384 sobre la concatenación de los campos clave en orden fijo.

package dte

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Códigos de tributo para la cadena de control.
const (
	CodTributoIVA = "20" // IVA 13 %
)

// ControlCodeParams datos del código de control en el orden de concatenación.
type ControlCodeParams struct {
	SaleNumber  string          // V-000001
	IssueDate   string          // YYYY-MM-DD
	Subtotal    decimal.Decimal // total sin impuestos
	TaxTotal    decimal.Decimal // total IVA
	Total       decimal.Decimal // total a pagar
	EmitterNIT  string          // NIT del emisor (solo dígitos)
	ReceiverID  string          // NIT o NRC del receptor; vacío = consumidor final
	Environment string          // "00" = pruebas, "01" = producción
}

// ControlCodeCalculator calcula el código de control.
type ControlCodeCalculator struct{}

// NewControlCodeCalculator crea el servicio.
func NewControlCodeCalculator() *ControlCodeCalculator {
	return &ControlCodeCalculator{}
}

// Calculate genera el código (hash hexadecimal) a partir de los parámetros.
// Cadena: SaleNumber + IssueDate + Subtotal + CodTributoIVA + TaxTotal + Total + EmitterNIT + ReceiverID + Environment
// Montos con punto decimal y 2 decimales (ej: 1791.98).
func (s *ControlCodeCalculator) Calculate(p *ControlCodeParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("dte: ControlCodeParams es obligatorio")
	}
	number := strings.TrimSpace(p.SaleNumber)
	if number == "" {
		return "", fmt.Errorf("dte: SaleNumber es obligatorio")
	}
	if p.IssueDate == "" {
		return "", fmt.Errorf("dte: IssueDate es obligatorio (YYYY-MM-DD)")
	}
	emitter := OnlyDigits(p.EmitterNIT)
	if emitter == "" {
		return "", fmt.Errorf("dte: EmitterNIT es obligatorio para el código de control")
	}
	receiver := OnlyDigits(p.ReceiverID)
	if receiver == "" {
		receiver = "0"
	}
	env := p.Environment
	if env == "" {
		env = "00"
	}

	cadena := number +
		p.IssueDate +
		FormatAmount(p.Subtotal) +
		CodTributoIVA + FormatAmount(p.TaxTotal) +
		FormatAmount(p.Total) +
		emitter +
		receiver +
		env

	hash := sha512.Sum384([]byte(cadena))
	return hex.EncodeToString(hash[:]), nil
}

// FormatAmount formatea montos para documentos: punto decimal, 2 decimales.
func FormatAmount(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// OnlyDigits deja solo dígitos 0-9 (para NIT y NRC).
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
