// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/depot-app/depot-backend/internal/models"
)

type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Category    string   `json:"category" validate:"max=50"`
	ImageURL    string   `json:"image_url" validate:"max=200"`
}

// UpdateProductRequest uses pointers throughout: a nil field was absent from
// the request and is left untouched, including when the caller wants to set
// an explicit zero.
type UpdateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Category    *string  `json:"category" validate:"omitempty,max=50"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,max=200"`
}

type ProductFilter struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Limit    int
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) Create(actor Actor, req *CreateProductRequest, ip string) (*models.Product, error) {
	if actor.IsAnonymous() {
		return nil, ErrForbidden
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	stock := 0
	if req.Stock != nil {
		stock = *req.Stock
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Stock:       stock,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		OwnerID:     actor.ID,
	}

	actorID := actor.ID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		return appendAudit(tx, &actorID, models.ActionCreateProduct,
			fmt.Sprintf("Product created: %s", product.Name), ip)
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

// Get is open to any caller, anonymous included. The asymmetry with the
// gated mutation paths is intentional and part of the public contract.
func (s *ProductService) Get(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// List returns products newest first, with optional category, price range,
// search, and result-cap filters. Open to anonymous callers.
func (s *ProductService) List(filter ProductFilter) ([]models.Product, error) {
	query := s.db.Model(&models.Product{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.Search != "" {
		searchTerm := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, nil
}

// ListForOwner returns a user's own products, newest first.
func (s *ProductService) ListForOwner(ownerID uuid.UUID, limit int) ([]models.Product, error) {
	query := s.db.Where("owner_id = ?", ownerID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, nil
}

func (s *ProductService) Update(actor Actor, id uuid.UUID, req *UpdateProductRequest, ip string) (*models.Product, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !actor.CanModify(product.OwnerID) {
		return nil, ErrForbidden
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}

	// Nothing to change means nothing happened: no write, no audit entry.
	if len(updates) == 0 {
		return &product, nil
	}

	actorID := actor.ID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		return appendAudit(tx, &actorID, models.ActionUpdateProduct,
			fmt.Sprintf("Product updated: %s", product.Name), ip)
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}

	return &product, nil
}

func (s *ProductService) Delete(actor Actor, id uuid.UUID, ip string) error {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if !actor.CanModify(product.OwnerID) {
		return ErrForbidden
	}

	actorID := actor.ID
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&product).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return appendAudit(tx, &actorID, models.ActionDeleteProduct,
			fmt.Sprintf("Product deleted: %s", product.Name), ip)
	})
}

// Categories lists the distinct non-empty categories in use.
func (s *ProductService) Categories() ([]string, error) {
	var categories []string
	if err := s.db.Model(&models.Product{}).
		Distinct("category").
		Where("category <> ''").
		Order("category").
		Pluck("category", &categories).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}
