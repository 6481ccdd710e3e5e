// internal/handlers/product.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/depot-app/depot-backend/internal/middleware"
	"github.com/depot-app/depot-backend/internal/services"
	"github.com/depot-app/depot-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// GET /products
//
// Open to anonymous callers: product reads are deliberately ungated while
// every other surface requires a session. Query params: category, min_price,
// max_price, search, limit.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	filter := services.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	if minStr := c.Query("min_price"); minStr != "" {
		if min, err := strconv.ParseFloat(minStr, 64); err == nil {
			filter.MinPrice = &min
		}
	}
	if maxStr := c.Query("max_price"); maxStr != "" {
		if max, err := strconv.ParseFloat(maxStr, 64); err == nil {
			filter.MaxPrice = &max
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	products, err := h.productService.List(filter)
	if err != nil {
		respondServiceError(c, err, "Product")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"count":    len(products),
		"products": products,
	})
}

// GET /products/categories
func (h *ProductHandler) ListCategories(c *gin.Context) {
	categories, err := h.productService.Categories()
	if err != nil {
		respondServiceError(c, err, "Product")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"categories": categories,
	})
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	product, err := h.productService.Get(id)
	if err != nil {
		respondServiceError(c, err, "Product")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product": product,
	})
}

// GET /products/mine
func (h *ProductHandler) ListOwnProducts(c *gin.Context) {
	actor := middleware.GetActor(c)

	products, err := h.productService.ListForOwner(actor.ID, 0)
	if err != nil {
		respondServiceError(c, err, "Product")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"count":    len(products),
		"products": products,
	})
}

// POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	actor := middleware.GetActor(c)

	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	product, err := h.productService.Create(actor, &req, c.ClientIP())
	if err != nil {
		respondServiceError(c, err, "Product")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "Product created",
		"product": product,
	})
}

// PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	actor := middleware.GetActor(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	product, err := h.productService.Update(actor, id, &req, c.ClientIP())
	if err != nil {
		respondServiceError(c, err, "Product")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Product updated",
		"product": product,
	})
}

// DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	actor := middleware.GetActor(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	if err := h.productService.Delete(actor, id, c.ClientIP()); err != nil {
		respondServiceError(c, err, "Product")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Product deleted",
	})
}
