package dte

// Emitter datos fijos del emisor que se imprimen en cada documento.
type Emitter struct {
	NIT               string
	Name              string // razón social
	TradeName         string
	Email             string
	Address           string
	EstablishmentCode string
	VATAffiliation    string // GEN, PEQ, EXE
	Currency          string
	Environment       string // 00 pruebas, 01 producción
}

// DefaultEmitter emisor de demostración.
func DefaultEmitter() Emitter {
	return Emitter{
		NIT:               "0614-123456-001-2",
		Name:              "Adventure Works S.A. de C.V.",
		TradeName:         "Adventure Works",
		Email:             "facturacion@adventureworks.com",
		Address:           "San Salvador",
		EstablishmentCode: "1",
		VATAffiliation:    "GEN",
		Currency:          "USD",
		Environment:       "00",
	}
}
