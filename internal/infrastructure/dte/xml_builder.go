// Package dte implementa los adaptadores del Documento Tributario Electrónico:
// construcción del XML, firma, compresión y envío a la autoridad tributaria.
package dte

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billy-api/internal/application/billing"
	domaindte "github.com/jhoicas/billy-api/internal/domain/dte"
)

const (
	// NsDTE namespace del documento.
	NsDTE = "http://www.sat.gob.gt/dte/fel/0.2.0"
	// DocumentElementID Id del nodo firmado (Reference URI="#DatosCertificados").
	DocumentElementID = "DatosCertificados"

	issueTimeLayout = "2006-01-02T15:04:05-07:00"
	consumerFinalID = "CF"
)

// XMLBuilder construye el XML del DTE con etree. Implementa billing.DocumentRenderer.
type XMLBuilder struct {
	emitter domaindte.Emitter
}

var _ billing.DocumentRenderer = (*XMLBuilder)(nil)

// NewXMLBuilder crea el builder con los datos del emisor.
func NewXMLBuilder(emitter domaindte.Emitter) *XMLBuilder {
	return &XMLBuilder{emitter: emitter}
}

// Render genera el documento. Misma entrada, mismos bytes: no lee el reloj ni genera ids.
func (b *XMLBuilder) Render(in billing.RenderInput) ([]byte, error) {
	if in.Sale == nil || in.Client == nil {
		return nil, fmt.Errorf("dte: faltan venta o cliente para renderizar")
	}
	sale, client := in.Sale, in.Client

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("dte:GTDocumento")
	root.CreateAttr("xmlns:dte", NsDTE)
	root.CreateAttr("Version", "0.1")

	sat := root.CreateElement("dte:SAT")
	sat.CreateAttr("ClaseDocumento", "dte")

	dteEl := sat.CreateElement("dte:DTE")
	dteEl.CreateAttr("ID", DocumentElementID)

	emision := dteEl.CreateElement("dte:DatosEmision")
	emision.CreateAttr("ID", "DatosEmision")

	generales := emision.CreateElement("dte:DatosGenerales")
	generales.CreateAttr("CodigoMoneda", b.emitter.Currency)
	generales.CreateAttr("FechaHoraEmision", in.IssuedAt.Format(issueTimeLayout))
	generales.CreateAttr("Tipo", "FACT")
	generales.CreateAttr("NumeroDocumento", sale.Number)
	generales.CreateAttr("Ambiente", b.emitter.Environment)

	emisor := emision.CreateElement("dte:Emisor")
	emisor.CreateAttr("AfiliacionIVA", b.emitter.VATAffiliation)
	emisor.CreateAttr("CodigoEstablecimiento", b.emitter.EstablishmentCode)
	emisor.CreateAttr("CorreoEmisor", b.emitter.Email)
	emisor.CreateAttr("NITEmisor", b.emitter.NIT)
	emisor.CreateAttr("NombreComercial", b.emitter.TradeName)
	emisor.CreateAttr("NombreEmisor", b.emitter.Name)
	if b.emitter.Address != "" {
		dir := emisor.CreateElement("dte:DireccionEmisor")
		dir.CreateElement("dte:Direccion").SetText(b.emitter.Address)
	}

	receptor := emision.CreateElement("dte:Receptor")
	receptor.CreateAttr("CorreoReceptor", client.Email)
	receptor.CreateAttr("IDReceptor", receiverID(client.NIT, client.NRC))
	receptor.CreateAttr("NombreReceptor", client.Name)
	if client.Address != "" {
		dir := receptor.CreateElement("dte:DireccionReceptor")
		dir.CreateElement("dte:Direccion").SetText(client.Address)
	}

	items := emision.CreateElement("dte:Items")
	for i, it := range sale.Items {
		tax := it.Tax()
		item := items.CreateElement("dte:Item")
		item.CreateAttr("BienOServicio", "B")
		item.CreateAttr("NumeroLinea", strconv.Itoa(i+1))
		item.CreateElement("dte:Cantidad").SetText(strconv.Itoa(it.Quantity))
		item.CreateElement("dte:UnidadMedida").SetText("UNI")
		item.CreateElement("dte:Descripcion").SetText(it.Name)
		item.CreateElement("dte:PrecioUnitario").SetText(money(it.Price))
		item.CreateElement("dte:Precio").SetText(money(it.Subtotal))
		item.CreateElement("dte:Descuento").SetText("0")
		impuesto := item.CreateElement("dte:Impuestos").CreateElement("dte:Impuesto")
		impuesto.CreateElement("dte:NombreCorto").SetText("IVA")
		impuesto.CreateElement("dte:CodigoUnidadGravable").SetText("1")
		impuesto.CreateElement("dte:MontoGravable").SetText(money(it.Subtotal))
		impuesto.CreateElement("dte:MontoImpuesto").SetText(money(tax))
		item.CreateElement("dte:Total").SetText(money(it.Subtotal.Add(tax)))
	}

	totales := emision.CreateElement("dte:Totales")
	totalImp := totales.CreateElement("dte:TotalImpuestos").CreateElement("dte:TotalImpuesto")
	totalImp.CreateAttr("NombreCorto", "IVA")
	totalImp.CreateAttr("TotalMontoImpuesto", money(sale.TaxTotal))
	totales.CreateElement("dte:SubTotal").SetText(money(sale.Subtotal))
	totales.CreateElement("dte:GranTotal").SetText(money(sale.Total))

	if in.ControlCode != "" {
		comp := emision.CreateElement("dte:Complementos").CreateElement("dte:Complemento")
		comp.CreateAttr("NombreComplemento", "CodigoControl")
		comp.CreateElement("dte:CodigoControl").SetText(in.ControlCode)
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("dte: serializar XML: %w", err)
	}
	return out, nil
}

// money formatea montos con 2 decimales para el documento.
func money(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

func receiverID(nit, nrc string) string {
	switch {
	case nit != "":
		return nit
	case nrc != "":
		return nrc
	default:
		return consumerFinalID
	}
}
