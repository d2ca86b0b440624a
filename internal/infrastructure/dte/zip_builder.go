package dte

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

// CompressXMLToZip empaqueta el XML en un ZIP en memoria con una única entrada xmlFilename.
func CompressXMLToZip(xmlBytes []byte, xmlFilename string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	fw, err := zw.Create(xmlFilename)
	if err != nil {
		return nil, fmt.Errorf("zip: crear entrada %s: %w", xmlFilename, err)
	}
	if _, err := fw.Write(xmlBytes); err != nil {
		return nil, fmt.Errorf("zip: escribir XML: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}

// ZipFilename nombre del ZIP para un XML: V-000001.xml -> V-000001.zip.
func ZipFilename(xmlFilename string) string {
	return strings.TrimSuffix(xmlFilename, ".xml") + ".zip"
}
