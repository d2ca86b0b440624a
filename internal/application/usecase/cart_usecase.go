package usecase

import (
	"context"
	"sync"

	"github.com/jhoicas/billy-api/internal/application/dto"
	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/cart"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
)

// CartUseCase mantiene un carrito en memoria por usuario autenticado.
type CartUseCase struct {
	mu       sync.Mutex
	carts    map[string]*cart.Cart
	products repository.ProductRepository
	clients  repository.ClientRepository
	sales    *SaleUseCase
}

// NewCartUseCase construye el caso de uso.
func NewCartUseCase(products repository.ProductRepository, clients repository.ClientRepository, sales *SaleUseCase) *CartUseCase {
	return &CartUseCase{
		carts:    make(map[string]*cart.Cart),
		products: products,
		clients:  clients,
		sales:    sales,
	}
}

// cartFor devuelve el carrito del usuario; el llamador sostiene uc.mu.
func (uc *CartUseCase) cartFor(userID string) *cart.Cart {
	c, ok := uc.carts[userID]
	if !ok {
		c = cart.New()
		uc.carts[userID] = c
	}
	return c
}

// Get estado actual del carrito.
func (uc *CartUseCase) Get(userID string) dto.CartResponse {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return dto.FromCart(uc.cartFor(userID))
}

// Clear vacía el carrito y quita el cliente.
func (uc *CartUseCase) Clear(userID string) dto.CartResponse {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	c := uc.cartFor(userID)
	c.Clear()
	return dto.FromCart(c)
}

// SelectClient reemplaza el cliente seleccionado.
func (uc *CartUseCase) SelectClient(ctx context.Context, userID, clientID string) (*dto.CartResponse, error) {
	client, err := uc.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, &domain.NotFoundError{Entity: "cliente", Msg: "Cliente no encontrado"}
	}
	if client.Status != entity.StatusActivo {
		return nil, domain.Invalid("clienteId", "el cliente está inactivo")
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	c := uc.cartFor(userID)
	c.SelectClient(client)
	out := dto.FromCart(c)
	return &out, nil
}

// AddItem agrega o suma cantidad de un producto activo.
func (uc *CartUseCase) AddItem(ctx context.Context, userID string, in dto.CartAddItemRequest) (*dto.CartResponse, error) {
	product, err := uc.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Entity: "producto", Msg: "Producto no encontrado"}
	}
	if product.Status != entity.StatusActivo {
		return nil, domain.Invalid("productId", "el producto está inactivo")
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	c := uc.cartFor(userID)
	if err := c.AddItem(product, in.Cantidad); err != nil {
		return nil, err
	}
	out := dto.FromCart(c)
	return &out, nil
}

// SetQuantity fija la cantidad; 0 o menos quita la línea.
func (uc *CartUseCase) SetQuantity(userID, productID string, quantity int) (*dto.CartResponse, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	c := uc.cartFor(userID)
	if err := c.SetQuantity(productID, quantity); err != nil {
		return nil, err
	}
	out := dto.FromCart(c)
	return &out, nil
}

// RemoveItem quita la línea del producto.
func (uc *CartUseCase) RemoveItem(userID, productID string) dto.CartResponse {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	c := uc.cartFor(userID)
	c.RemoveItem(productID)
	return dto.FromCart(c)
}

// Checkout registra la venta con el contenido del carrito y lo vacía.
func (uc *CartUseCase) Checkout(ctx context.Context, actor entity.Actor) (*dto.SaleResponse, error) {
	uc.mu.Lock()
	c := uc.cartFor(actor.UserID)
	client := c.Client()
	items := c.Items()
	tot := c.Totals()
	uc.mu.Unlock()

	if client == nil {
		return nil, domain.Invalid("clienteId", "seleccione un cliente")
	}
	if len(items) == 0 {
		return nil, domain.Invalid("items", "el carrito está vacío")
	}
	req := dto.CreateSaleRequest{
		ClienteID: client.ID,
		Subtotal:  &tot.Subtotal,
		TotalIva:  &tot.TaxTotal,
		Total:     &tot.Total,
	}
	for _, it := range items {
		req.Items = append(req.Items, dto.SaleItemRequest{
			ProductID: it.ProductID, Nombre: it.Name, Cantidad: it.Quantity, Precio: it.Price, IVA: it.TaxRate,
		})
	}
	sale, err := uc.sales.Create(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	uc.mu.Lock()
	uc.cartFor(actor.UserID).Clear()
	uc.mu.Unlock()
	return sale, nil
}
