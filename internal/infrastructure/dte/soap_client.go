package dte

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/billy-api/internal/application/billing"
)

const (
	soapNS        = "http://schemas.xmlsoap.org/soap/envelope/"
	soapNSService = "http://tempuri.org/"
	soapAction    = "http://tempuri.org/IDTEService/RecibirDTE"
)

// SOAPAuthority implementa billing.TaxAuthority contra un WS SOAP de recepción de DTE.
// El XML viaja comprimido en ZIP y codificado en Base64.
type SOAPAuthority struct {
	url        string
	httpClient *http.Client
}

var _ billing.TaxAuthority = (*SOAPAuthority)(nil)

// NewSOAPAuthority construye el cliente. El tiempo máximo de cada envío lo fija
// el contexto del llamador; el timeout del http.Client es solo un tope de red.
func NewSOAPAuthority(url string, httpClient *http.Client) *SOAPAuthority {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &SOAPAuthority{url: url, httpClient: httpClient}
}

// ── Estructuras SOAP ──────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name   `xml:"s:Envelope"`
	XmlnsS  string     `xml:"xmlns:s,attr"`
	Header  soapHeader `xml:"s:Header"`
	Body    soapBody   `xml:"s:Body"`
}

type soapHeader struct{}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "s:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type receiveBody struct {
	XMLName     xml.Name `xml:"RecibirDTE"`
	Xmlns       string   `xml:"xmlns,attr"`
	FileName    string   `xml:"fileName"`
	ContentFile string   `xml:"contentFile"` // ZIP en Base64
}

type soapResponseEnvelope struct {
	Body soapResponseBody `xml:"Body"`
}

type soapResponseBody struct {
	Response *receiveResponse `xml:"RecibirDTEResponse"`
	Fault    *soapFault       `xml:"Fault"`
}

type receiveResponse struct {
	Result receiveResult `xml:"RecibirDTEResult"`
}

type receiveResult struct {
	HasErrors        bool     `xml:"HasErrors"`
	ErrorMessageList []string `xml:"ErrorMessageList>string"`
	MessageList      []string `xml:"MessageList>string"`
	TrackID          string   `xml:"TrackId"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// Submit envía el documento. Un Fault o HasErrors es un rechazo (veredicto);
// el error se reserva para fallos de transporte, HTTP 5xx y respuestas ilegibles.
func (c *SOAPAuthority) Submit(ctx context.Context, doc billing.Document) (*billing.AuthorityResponse, error) {
	zipBytes, err := CompressXMLToZip(doc.XML, doc.Filename)
	if err != nil {
		return nil, err
	}

	envelope := soapEnvelope{
		XmlnsS: soapNS,
		Body: soapBody{Content: &receiveBody{
			Xmlns:       soapNSService,
			FileName:    ZipFilename(doc.Filename),
			ContentFile: base64.StdEncoding.EncodeToString(zipBytes),
		}},
	}
	xmlPayload, err := xml.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(xmlPayload))
	if err != nil {
		return nil, fmt.Errorf("soap: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", soapAction)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("soap: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("soap: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return nil, fmt.Errorf("soap: leer respuesta: %w", err)
	}
	return parseResponse(resp.StatusCode, rawBody)
}

func parseResponse(status int, rawBody []byte) (*billing.AuthorityResponse, error) {
	var envResp soapResponseEnvelope
	if err := xml.Unmarshal(rawBody, &envResp); err != nil {
		return nil, fmt.Errorf("soap: respuesta ilegible (HTTP %d): %w", status, err)
	}

	// SOAP 1.1 responde los Fault con HTTP 500: se distingue por faultcode.
	// Client es un rechazo del documento; Server es no disponibilidad.
	if f := envResp.Body.Fault; f != nil {
		if strings.Contains(strings.ToLower(f.FaultCode), "server") {
			return nil, fmt.Errorf("soap: fault del servidor [%s]: %s", f.FaultCode, f.FaultString)
		}
		return &billing.AuthorityResponse{
			Accepted: false,
			Messages: []string{fmt.Sprintf("SOAP Fault [%s]: %s", f.FaultCode, f.FaultString)},
		}, nil
	}
	if status >= 500 {
		return nil, fmt.Errorf("soap: HTTP %d", status)
	}
	if envResp.Body.Response == nil {
		return nil, fmt.Errorf("soap: respuesta vacía o inesperada (HTTP %d)", status)
	}

	result := envResp.Body.Response.Result
	msgs := result.MessageList
	if result.HasErrors {
		msgs = append(append([]string{}, result.ErrorMessageList...), msgs...)
	}
	return &billing.AuthorityResponse{
		Accepted: !result.HasErrors,
		Messages: msgs,
		TrackID:  result.TrackID,
	}, nil
}
