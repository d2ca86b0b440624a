package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
)

// Columnas del catálogo exportado por el POS anterior, separadas por ';':
//
//	sku;nombre;categoria;precio;iva;stock;unidad
//
// iva y unidad son opcionales (0.13 y UNI).
var catalogHeader = []string{"sku", "nombre", "categoria", "precio", "iva", "stock", "unidad"}

// DecodeReader envuelve r según el charset del archivo. utf-8 o vacío no transforma.
func DecodeReader(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.ReplaceAll(charset, "_", "-")) {
	case "", "utf-8", "utf8":
		return r, nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("seed: charset no soportado %q", charset)
	}
}

// ReadCatalog lee productos de un CSV del catálogo. La primera fila es el encabezado.
// Los IDs se derivan del SKU para que importar dos veces no duplique.
func ReadCatalog(r io.Reader) ([]*entity.Product, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("seed: catálogo vacío")
		}
		return nil, fmt.Errorf("seed: encabezado: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range []string{"sku", "nombre", "precio"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("seed: falta la columna %q (esperado %s)", col, strings.Join(catalogHeader, ";"))
		}
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []*entity.Product
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("seed: línea %d: %w", line, err)
		}
		sku := field(rec, "sku")
		if sku == "" {
			continue
		}
		p := &entity.Product{
			ID:       StableID("producto", sku),
			SKU:      sku,
			Name:     field(rec, "nombre"),
			Category: field(rec, "categoria"),
			Unit:     field(rec, "unidad"),
			TaxRate:  decimal.RequireFromString("0.13"),
			Status:   entity.StatusActivo,
		}
		if p.Unit == "" {
			p.Unit = "UNI"
		}
		if p.Price, err = parseDecimal(field(rec, "precio")); err != nil {
			return nil, fmt.Errorf("seed: línea %d: precio: %w", line, err)
		}
		if v := field(rec, "iva"); v != "" {
			if p.TaxRate, err = parseDecimal(v); err != nil {
				return nil, fmt.Errorf("seed: línea %d: iva: %w", line, err)
			}
		}
		if v := field(rec, "stock"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("seed: línea %d: stock: %w", line, err)
			}
			p.Stock = &n
		}
		out = append(out, p)
	}
	return out, nil
}

// parseDecimal acepta coma decimal ("45,99").
func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}

// ImportProducts crea los productos leídos; los SKU ya registrados se omiten.
func ImportProducts(ctx context.Context, repo repository.ProductRepository, list []*entity.Product, now time.Time) (Summary, error) {
	var sum Summary
	for _, p := range list {
		p.CreatedAt, p.UpdatedAt = now, now
		if err := tally(&sum, repo.Create(ctx, p)); err != nil {
			return sum, fmt.Errorf("seed: producto %s: %w", p.SKU, err)
		}
	}
	return sum, nil
}
