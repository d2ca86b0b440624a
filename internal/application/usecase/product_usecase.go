package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billy-api/internal/application/audit"
	"github.com/jhoicas/billy-api/internal/application/dto"
	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos. El stock es informativo.
type ProductUseCase struct {
	repo  repository.ProductRepository
	audit audit.Recorder
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, rec audit.Recorder) *ProductUseCase {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &ProductUseCase{repo: repo, audit: rec}
}

var taxRateMax = decimal.NewFromInt(1)

func validateProduct(p *entity.Product) error {
	switch {
	case strings.TrimSpace(p.SKU) == "":
		return domain.Invalid("sku", "es obligatorio")
	case strings.TrimSpace(p.Name) == "":
		return domain.Invalid("nombre", "es obligatorio")
	case strings.TrimSpace(p.Category) == "":
		return domain.Invalid("categoria", "es obligatoria")
	case strings.TrimSpace(p.Unit) == "":
		return domain.Invalid("unidad", "es obligatoria")
	case p.Price.IsNegative():
		return domain.Invalid("precio", "no puede ser negativo")
	case p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(taxRateMax):
		return domain.Invalid("iva", "debe estar entre 0 y 1 (0.13 = 13 %)")
	case p.Status != entity.StatusActivo && p.Status != entity.StatusInactivo:
		return domain.Invalid("estado", "debe ser ACTIVO o INACTIVO")
	case p.Stock != nil && *p.Stock < 0:
		return domain.Invalid("stock", "no puede ser negativo")
	}
	return nil
}

// Create crea un producto. Un SKU existente (activo o inactivo) es ConflictError.
func (uc *ProductUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	now := time.Now().UTC()
	product := &entity.Product{
		ID:        uuid.New().String(),
		SKU:       strings.TrimSpace(in.SKU),
		Name:      strings.TrimSpace(in.Nombre),
		Category:  strings.TrimSpace(in.Categoria),
		Unit:      strings.TrimSpace(in.Unidad),
		Price:     in.Precio,
		TaxRate:   in.IVA,
		Status:    in.Estado,
		Stock:     in.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if product.Unit == "" {
		product.Unit = "UNI"
	}
	if product.Status == "" {
		product.Status = entity.StatusActivo
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, actor, entity.AuditCreate, "producto", fmt.Sprintf("Producto %s (%s) creado", product.SKU, product.Name))
	out := dto.FromProduct(product)
	return &out, nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Entity: "producto", Msg: "Producto no encontrado"}
	}
	out := dto.FromProduct(product)
	return &out, nil
}

// Update aplica los campos presentes.
func (uc *ProductUseCase) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	current, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &domain.NotFoundError{Entity: "producto", Msg: "Producto no encontrado"}
	}
	patch := entity.ProductPatch{
		SKU: trimPtr(in.SKU), Name: trimPtr(in.Nombre), Category: trimPtr(in.Categoria), Unit: trimPtr(in.Unidad),
		Price: in.Precio, TaxRate: in.IVA, Status: in.Estado, Stock: in.Stock,
	}
	next := patch.Apply(*current)
	next.UpdatedAt = time.Now().UTC()
	if err := validateProduct(&next); err != nil {
		return nil, err
	}
	if err := uc.repo.Update(ctx, &next); err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, actor, entity.AuditUpdate, "producto", fmt.Sprintf("Producto %s actualizado", next.SKU))
	out := dto.FromProduct(&next)
	return &out, nil
}

// List lista productos con filtros de búsqueda, categoría y estado.
func (uc *ProductUseCase) List(ctx context.Context, f entity.ProductFilter) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, dto.FromProduct(p))
	}
	return &dto.ProductListResponse{Productos: items}, nil
}

// Categories categorías distintas ordenadas.
func (uc *ProductUseCase) Categories(ctx context.Context) (*dto.CategoriesResponse, error) {
	cats, err := uc.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.CategoriesResponse{Categorias: cats}, nil
}

// Delete elimina un producto; ReferentialIntegrityError si alguna venta lo incluye.
func (uc *ProductUseCase) Delete(ctx context.Context, actor entity.Actor, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.NotFoundError{Entity: "producto", Msg: "Producto no encontrado"}
		}
		return err
	}
	uc.audit.Record(ctx, actor, entity.AuditDelete, "producto", "Producto "+id+" eliminado")
	return nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
