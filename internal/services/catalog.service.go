package services

import (
	"context"

	"github.com/nimasrn/classroom-points/internal/model"
	"github.com/nimasrn/classroom-points/pkg/logger"
)

type ProductStore interface {
	ProductReader
	Create(ctx context.Context, p *model.Product) (*model.Product, error)
	ListByClass(ctx context.Context, classID int64) ([]*model.Product, error)
	Delete(ctx context.Context, id int64) error
}

type ClassReader interface {
	Get(ctx context.Context, id int64) (*model.Class, error)
}

type CatalogService struct {
	products ProductStore
	classes  ClassReader
}

func NewCatalogService(products ProductStore, classes ClassReader) *CatalogService {
	return &CatalogService{
		products: products,
		classes:  classes,
	}
}

func (s *CatalogService) Create(ctx context.Context, req model.ProductCreateRequest) (*model.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.classes.Get(ctx, req.ClassID); err != nil {
		return nil, asKind(model.EntityClass, req.ClassID, err)
	}

	p, err := s.products.Create(ctx, &model.Product{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Image:       req.Image,
		ClassID:     req.ClassID,
	})
	if err != nil {
		return nil, asKind(model.EntityProduct, 0, err)
	}
	logger.Info("product created", "product_id", p.ID, "class_id", p.ClassID, "price", p.Price)
	return p, nil
}

func (s *CatalogService) Get(ctx context.Context, id int64) (*model.Product, error) {
	p, err := s.products.Get(ctx, id)
	return p, asKind(model.EntityProduct, id, err)
}

// List returns the products of a class, newest first.
func (s *CatalogService) List(ctx context.Context, classID int64) ([]*model.Product, error) {
	if classID == 0 {
		return nil, model.InvalidArgument(model.EntityClass, 0, "classId is required")
	}
	list, err := s.products.ListByClass(ctx, classID)
	return list, asKind(model.EntityClass, classID, err)
}

// Delete removes a product. Purchases keep their snapshot of it.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return asKind(model.EntityProduct, id, err)
	}
	logger.Info("product deleted", "product_id", id)
	return nil
}
