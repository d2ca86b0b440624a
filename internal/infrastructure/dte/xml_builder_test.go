package dte_test

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billy-api/internal/application/billing"
	domaindte "github.com/jhoicas/billy-api/internal/domain/dte"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/infrastructure/dte"
)

func sampleInput() billing.RenderInput {
	iva := decimal.RequireFromString("0.13")
	items := []entity.SaleLineItem{
		entity.NewLineItem("p1", "Laptop Dell XPS 13", 2, decimal.RequireFromString("850.00"), iva),
		entity.NewLineItem("p2", "Mouse Logitech MX", 2, decimal.RequireFromString("45.99"), iva),
	}
	t := entity.ComputeTotals(items)
	issued := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return billing.RenderInput{
		Sale: &entity.Sale{
			ID: "s1", Number: "V-000001", Date: issued, ClientID: "c1", SellerID: "u1",
			Items: items, Subtotal: t.Subtotal, TaxTotal: t.TaxTotal, Total: t.Total,
			Status: entity.SaleStatusPendiente,
		},
		Client: &entity.Client{
			ID: "c1", NIT: "0614-234567-002-1", Name: "Comercial XYZ Ltda.",
			Address: "Av. Roosevelt 123", Email: "ventas@comercialxyz.com",
			FiscalProfile: entity.FiscalProfileResponsableIVA, Status: entity.StatusActivo,
		},
		IssuedAt:    issued,
		ControlCode: "abc123",
	}
}

func parse(t *testing.T, b []byte) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(b))
	return doc
}

// ──────────────────────────────────────────────────────────────────────────────
// XMLBuilder
// ──────────────────────────────────────────────────────────────────────────────

func TestXMLBuilder_Render_EstructuraYTotales(t *testing.T) {
	out, err := dte.NewXMLBuilder(domaindte.DefaultEmitter()).Render(sampleInput())
	require.NoError(t, err)

	doc := parse(t, out)
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "GTDocumento", root.Tag)
	assert.Equal(t, dte.NsDTE, root.SelectAttrValue("xmlns:dte", ""))

	emision := doc.FindElement("//dte:DatosEmision")
	require.NotNil(t, emision)

	gen := emision.SelectElement("dte:DatosGenerales")
	require.NotNil(t, gen)
	assert.Equal(t, "USD", gen.SelectAttrValue("CodigoMoneda", ""))
	assert.Equal(t, "2024-01-15T10:30:00+00:00", gen.SelectAttrValue("FechaHoraEmision", ""))
	assert.Equal(t, "V-000001", gen.SelectAttrValue("NumeroDocumento", ""))

	emisor := emision.SelectElement("dte:Emisor")
	assert.Equal(t, "0614-123456-001-2", emisor.SelectAttrValue("NITEmisor", ""))

	receptor := emision.SelectElement("dte:Receptor")
	assert.Equal(t, "0614-234567-002-1", receptor.SelectAttrValue("IDReceptor", ""))
	assert.Equal(t, "Comercial XYZ Ltda.", receptor.SelectAttrValue("NombreReceptor", ""))

	items := emision.FindElements("./dte:Items/dte:Item")
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].SelectAttrValue("NumeroLinea", ""))
	assert.Equal(t, "1700.00", items[0].SelectElement("dte:Precio").Text())
	assert.Equal(t, "221.00", items[0].FindElement(".//dte:MontoImpuesto").Text())
	assert.Equal(t, "1921.00", items[0].SelectElement("dte:Total").Text())
	assert.Equal(t, "91.98", items[1].SelectElement("dte:Precio").Text())

	totales := emision.SelectElement("dte:Totales")
	assert.Equal(t, "232.96", totales.FindElement(".//dte:TotalImpuesto").SelectAttrValue("TotalMontoImpuesto", ""))
	assert.Equal(t, "1791.98", totales.SelectElement("dte:SubTotal").Text())
	assert.Equal(t, "2024.94", totales.SelectElement("dte:GranTotal").Text())

	cc := emision.FindElement(".//dte:CodigoControl")
	require.NotNil(t, cc)
	assert.Equal(t, "abc123", cc.Text())
}

func TestXMLBuilder_Render_Determinista(t *testing.T) {
	b := dte.NewXMLBuilder(domaindte.DefaultEmitter())
	first, err := b.Render(sampleInput())
	require.NoError(t, err)
	second, err := b.Render(sampleInput())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	in := sampleInput()
	in.IssuedAt = in.IssuedAt.Add(time.Second)
	third, err := b.Render(in)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestXMLBuilder_Render_ConsumidorFinalYEscape(t *testing.T) {
	in := sampleInput()
	in.Client.NIT = ""
	in.Client.NRC = ""
	in.Client.Name = `Ferretería "El Martillo" & Cía`

	out, err := dte.NewXMLBuilder(domaindte.DefaultEmitter()).Render(in)
	require.NoError(t, err)

	receptor := parse(t, out).FindElement("//dte:Receptor")
	require.NotNil(t, receptor)
	assert.Equal(t, "CF", receptor.SelectAttrValue("IDReceptor", ""))
	assert.Equal(t, `Ferretería "El Martillo" & Cía`, receptor.SelectAttrValue("NombreReceptor", ""))
}

func TestXMLBuilder_Render_NRCSinNIT(t *testing.T) {
	in := sampleInput()
	in.Client.NIT = ""
	in.Client.NRC = "123456-7"
	out, err := dte.NewXMLBuilder(domaindte.DefaultEmitter()).Render(in)
	require.NoError(t, err)
	assert.Equal(t, "123456-7", parse(t, out).FindElement("//dte:Receptor").SelectAttrValue("IDReceptor", ""))
}

func TestXMLBuilder_Render_SinVenta(t *testing.T) {
	_, err := dte.NewXMLBuilder(domaindte.DefaultEmitter()).Render(billing.RenderInput{})
	assert.Error(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// ZIP
// ──────────────────────────────────────────────────────────────────────────────

func TestCompressXMLToZip_UnaEntrada(t *testing.T) {
	payload := []byte("<dte/>")
	zipped, err := dte.CompressXMLToZip(payload, "V-000001.xml")
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(zipped), int64(len(zipped)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "V-000001.xml", zr.File[0].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	assert.Equal(t, "V-000001.zip", dte.ZipFilename("V-000001.xml"))
}
