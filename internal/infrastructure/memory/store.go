// Package memory implementa los repositorios sobre un almacén en memoria.
// Un único RWMutex serializa las verificaciones de invariantes con sus escrituras;
// los índices de unicidad y de referencias se mantienen junto a los datos.
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// Store almacén compartido por todos los repositorios en memoria.
type Store struct {
	mu sync.RWMutex

	products map[string]*entity.Product
	skus     map[string]string // sku -> product id

	clients map[string]*entity.Client
	nits    map[string]string // nit -> client id
	nrcs    map[string]string // nrc -> client id

	sales     map[string]*entity.Sale
	saleOrder []string // orden de creación
	saleSeq   int64

	productRefs     map[string]int // product id -> líneas de venta que lo referencian
	clientRefs      map[string]int // client id -> ventas que lo referencian
	invoicedClients map[string]int // client id -> ventas FACTURADA

	invoices     map[string]*entity.Invoice
	invoiceOrder []string

	audit []*entity.AuditRecord

	users  map[string]*entity.User
	emails map[string]string // email en minúsculas -> user id
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		products:        make(map[string]*entity.Product),
		skus:            make(map[string]string),
		clients:         make(map[string]*entity.Client),
		nits:            make(map[string]string),
		nrcs:            make(map[string]string),
		sales:           make(map[string]*entity.Sale),
		productRefs:     make(map[string]int),
		clientRefs:      make(map[string]int),
		invoicedClients: make(map[string]int),
		invoices:        make(map[string]*entity.Invoice),
		users:           make(map[string]*entity.User),
		emails:          make(map[string]string),
	}
}

func cloneProduct(p *entity.Product) *entity.Product {
	cp := *p
	if p.Stock != nil {
		s := *p.Stock
		cp.Stock = &s
	}
	return &cp
}

func cloneClient(c *entity.Client) *entity.Client {
	cp := *c
	return &cp
}

func cloneSale(s *entity.Sale) *entity.Sale {
	cp := *s
	cp.Items = make([]entity.SaleLineItem, len(s.Items))
	copy(cp.Items, s.Items)
	return &cp
}

func cloneInvoice(i *entity.Invoice) *entity.Invoice {
	cp := *i
	if i.Messages != nil {
		cp.Messages = append([]string(nil), i.Messages...)
	}
	if i.RespondedAt != nil {
		t := *i.RespondedAt
		cp.RespondedAt = &t
	}
	return &cp
}

func cloneUser(u *entity.User) *entity.User {
	cp := *u
	if u.LastAccess != nil {
		t := *u.LastAccess
		cp.LastAccess = &t
	}
	return &cp
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// sortProducts ordena por fecha de creación y luego por id para un orden estable.
func sortProducts(list []*entity.Product) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

func sortClients(list []*entity.Client) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
