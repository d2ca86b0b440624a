// Firma XMLDSig enveloped del DTE con propiedades XAdES.
// Inyecta <ds:Signature> como último hijo de la raíz del documento.

package signer

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/billy-api/internal/application/billing"
)

// ErrSignatureMismatch el documento no corresponde a su firma.
var ErrSignatureMismatch = errors.New("signer: la firma no corresponde al documento")

// Service firma documentos con un certificado RSA. Implementa billing.DocumentSigner.
type Service struct {
	priv *rsa.PrivateKey
	cert *x509.Certificate
	now  func() time.Time
}

var _ billing.DocumentSigner = (*Service)(nil)

// NewService valida que el certificado traiga llave privada RSA.
func NewService(cert tls.Certificate) (*Service, error) {
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("signer: certificado vacío")
	}
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("signer: el certificado debe incluir llave privada RSA")
	}
	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("signer: parsear certificado: %w", err)
	}
	return &Service{priv: priv, cert: x509Cert, now: time.Now}, nil
}

// WithClock fija el reloj de SigningTime (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Sign firma el nodo con ID=DatosCertificados y agrega ds:Signature a la raíz.
func (s *Service) Sign(xmlBytes []byte) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("signer: XML vacío")
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("signer: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("signer: documento sin raíz")
	}

	docDigestB64, err := referenceDigest(root)
	if err != nil {
		return nil, err
	}

	signedInfoXML := buildSignedInfo(docDigestB64)
	signHash := sha256.Sum256(canonicalize([]byte(signedInfoXML)))
	signatureValue, err := rsa.SignPKCS1v15(nil, s.priv, crypto.SHA256, signHash[:])
	if err != nil {
		return nil, fmt.Errorf("signer: firmar SignedInfo: %w", err)
	}

	certDigestB64, issuerName, serialHex := CertDigestAndIssuerSerial(s.cert)
	signatureXML := buildFullSignature(
		signedInfoXML,
		base64.StdEncoding.EncodeToString(signatureValue),
		base64.StdEncoding.EncodeToString(s.cert.Raw),
		s.now().UTC().Format("2006-01-02T15:04:05.000Z"),
		certDigestB64, issuerName, serialHex,
	)

	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(signatureXML); err != nil {
		return nil, fmt.Errorf("signer: parsear Signature: %w", err)
	}
	root.AddChild(sigDoc.Root())

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("signer: serializar: %w", err)
	}
	return out.Bytes(), nil
}

// Verify comprueba digest y firma de un documento producido por Sign.
func Verify(signedXML []byte, cert *x509.Certificate) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(signedXML); err != nil {
		return fmt.Errorf("signer: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("signer: documento sin raíz")
	}
	sig := root.SelectElement("ds:Signature")
	if sig == nil {
		return fmt.Errorf("signer: documento sin ds:Signature")
	}
	digestEl := sig.FindElement("./ds:SignedInfo/ds:Reference/ds:DigestValue")
	valueEl := sig.SelectElement("ds:SignatureValue")
	if digestEl == nil || valueEl == nil {
		return fmt.Errorf("signer: ds:Signature incompleta")
	}

	root.RemoveChild(sig)
	docDigestB64, err := referenceDigest(root)
	if err != nil {
		return err
	}
	if docDigestB64 != strings.TrimSpace(digestEl.Text()) {
		return ErrSignatureMismatch
	}

	signatureValue, err := base64.StdEncoding.DecodeString(strings.TrimSpace(valueEl.Text()))
	if err != nil {
		return fmt.Errorf("signer: SignatureValue inválido: %w", err)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("signer: el certificado no tiene llave RSA")
	}
	signHash := sha256.Sum256(canonicalize([]byte(buildSignedInfo(docDigestB64))))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, signHash[:], signatureValue); err != nil {
		return ErrSignatureMismatch
	}
	return nil
}

// referenceDigest SHA-256 (Base64) de la forma canónica del nodo referenciado.
// El nodo se copia a un documento propio con los namespaces heredados de sus ancestros.
func referenceDigest(root *etree.Element) (string, error) {
	el := findByID(root, ReferencedElementID)
	if el == nil {
		return "", fmt.Errorf("signer: no se encontró el nodo ID=%s", ReferencedElementID)
	}
	cp := el.Copy()
	for p := el.Parent(); p != nil; p = p.Parent() {
		for _, a := range p.Attr {
			if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
				if cp.SelectAttr(a.FullKey()) == nil {
					cp.CreateAttr(a.FullKey(), a.Value)
				}
			}
		}
	}
	sub := etree.NewDocument()
	sub.SetRoot(cp)
	raw, err := sub.WriteToBytes()
	if err != nil {
		return "", fmt.Errorf("signer: serializar nodo firmado: %w", err)
	}
	sum := sha256.Sum256(canonicalize(raw))
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func findByID(el *etree.Element, id string) *etree.Element {
	if el.SelectAttrValue("ID", "") == id {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

// canonicalize aplica C14N; si falla se usan los bytes tal cual.
func canonicalize(data []byte) []byte {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	out, err := c14n.Canonicalize(dec)
	if err != nil {
		return data
	}
	return out
}

func buildSignedInfo(docDigestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:SignedInfo xmlns:ds="` + NamespaceDS + `">`)
	sb.WriteString(`<ds:CanonicalizationMethod Algorithm="` + AlgC14N + `"/>`)
	sb.WriteString(`<ds:SignatureMethod Algorithm="` + AlgRSASHA256 + `"/>`)
	sb.WriteString(`<ds:Reference URI="#` + ReferencedElementID + `">`)
	sb.WriteString(`<ds:Transforms><ds:Transform Algorithm="` + TransformEnveloped + `"/>`)
	sb.WriteString(`<ds:Transform Algorithm="` + AlgC14N + `"/></ds:Transforms>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + docDigestB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`</ds:SignedInfo>`)
	return sb.String()
}

func buildFullSignature(signedInfoXML, signatureValueB64, certB64, signingTime, certDigestB64, issuerName, serialHex string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:Signature xmlns:ds="` + NamespaceDS + `" xmlns:xades="` + NamespaceXAdES + `" Id="Signature">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<ds:SignatureValue>` + signatureValueB64 + `</ds:SignatureValue>`)
	sb.WriteString(`<ds:KeyInfo><ds:X509Data><ds:X509Certificate>` + certB64 + `</ds:X509Certificate></ds:X509Data></ds:KeyInfo>`)
	sb.WriteString(`<ds:Object><xades:QualifyingProperties Target="#Signature">`)
	sb.WriteString(`<xades:SignedProperties Id="signed-props">`)
	sb.WriteString(`<xades:SignedSignatureProperties>`)
	sb.WriteString(`<xades:SigningTime>` + signingTime + `</xades:SigningTime>`)
	sb.WriteString(`<xades:SigningCertificate><xades:Cert><xades:CertDigest><ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + certDigestB64 + `</ds:DigestValue></xades:CertDigest>`)
	sb.WriteString(`<xades:IssuerSerial><ds:X509IssuerName>` + escapeXML(issuerName) + `</ds:X509IssuerName><ds:X509SerialNumber>` + serialHex + `</ds:X509SerialNumber></xades:IssuerSerial></xades:Cert></xades:SigningCertificate>`)
	sb.WriteString(`</xades:SignedSignatureProperties></xades:SignedProperties></xades:QualifyingProperties></ds:Object>`)
	sb.WriteString(`</ds:Signature>`)
	return sb.String()
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
