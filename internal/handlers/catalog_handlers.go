package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"inventario-backend/internal/models"
	"inventario-backend/internal/repository"
)

// CatalogHandler serves the catalog surface: products, clients, suppliers,
// supplier price lists and quotations. These are plain persistence routes;
// only product deletion and category changes interact with stock tracking,
// and both of those go through the inventory routes instead.
type CatalogHandler struct {
	repo *repository.CatalogRepository
}

func NewCatalogHandler(repo *repository.CatalogRepository) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

// ========== Product Handlers ==========

// CreateProduct creates a catalog entry
// POST /api/v1/productos
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	category := req.Category
	if category == "" {
		category = models.CategoryProducto
	}
	if category != models.CategoryProducto && category != models.CategoryFlete {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "VALIDATION_ERROR", Message: "tipo debe ser producto o flete"},
		})
		return
	}

	exists, err := h.repo.SKUExists(c.Request.Context(), req.SKU)
	if err != nil {
		respondInternalError(c, "Failed to create product")
		return
	}
	if exists {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "DUPLICATE_SKU", Message: "El SKU ya existe"},
		})
		return
	}

	product := &models.Product{
		SKU:      req.SKU,
		Name:     req.Name,
		Category: category,
		Price:    req.Price,
		PhotoURL: req.PhotoURL,
	}
	if err := h.repo.CreateProduct(c.Request.Context(), product); err != nil {
		respondInternalError(c, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: product})
}

// ListProducts lists products, optionally filtered by category
// GET /api/v1/productos?tipo=producto|flete
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	page, limit := getPagination(c)

	var category *models.ProductCategory
	if raw := strings.ToLower(c.Query("tipo")); raw != "" {
		cat := models.ProductCategory(raw)
		if cat != models.CategoryProducto && cat != models.CategoryFlete {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "VALIDATION_ERROR", Message: "tipo debe ser producto o flete"},
			})
			return
		}
		category = &cat
	}

	products, total, err := h.repo.ListProducts(c.Request.Context(), category, page, limit)
	if err != nil {
		respondInternalError(c, "Failed to list products")
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success:    true,
		Data:       products,
		Pagination: buildPagination(page, limit, total),
	})
}

// GetProduct returns one product
// GET /api/v1/productos/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.repo.GetProductByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		respondProductNotFound(c)
		return
	}
	if err != nil {
		respondInternalError(c, "Failed to get product")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: product})
}

// UpdateProduct edits catalog fields. Category changes do not touch the
// inventory record here; the bulk importer is the path that reconciles them.
// PUT /api/v1/productos/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Category != nil {
		if *req.Category != models.CategoryProducto && *req.Category != models.CategoryFlete {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "VALIDATION_ERROR", Message: "tipo debe ser producto o flete"},
			})
			return
		}
		updates["category"] = *req.Category
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.PhotoURL != nil {
		updates["photo_url"] = *req.PhotoURL
	}

	if err := h.repo.UpdateProduct(c.Request.Context(), id, updates); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondProductNotFound(c)
			return
		}
		respondInternalError(c, "Failed to update product")
		return
	}

	product, err := h.repo.GetProductByID(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, "Failed to get product")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: product})
}

// DeleteProduct soft-deletes a catalog entry
// DELETE /api/v1/productos/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondProductNotFound(c)
			return
		}
		respondInternalError(c, "Failed to delete product")
		return
	}

	msg := "Producto eliminado"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// ========== Client Handlers ==========

// CreateClient registers a quotation recipient
// POST /api/v1/clientes
func (h *CatalogHandler) CreateClient(c *gin.Context) {
	var req models.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	client := &models.Client{
		Name:    req.Name,
		TaxID:   req.TaxID,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if err := h.repo.CreateClient(c.Request.Context(), client); err != nil {
		respondInternalError(c, "Failed to create client")
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: client})
}

// ListClients returns paginated clients
// GET /api/v1/clientes
func (h *CatalogHandler) ListClients(c *gin.Context) {
	page, limit := getPagination(c)

	clients, total, err := h.repo.ListClients(c.Request.Context(), page, limit)
	if err != nil {
		respondInternalError(c, "Failed to list clients")
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success:    true,
		Data:       clients,
		Pagination: buildPagination(page, limit, total),
	})
}

// GetClient retrieves a single client
// GET /api/v1/clientes/:id
func (h *CatalogHandler) GetClient(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	client, err := h.repo.GetClientByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "CLIENTE_NOT_FOUND", Message: "Cliente no encontrado"},
			})
			return
		}
		respondInternalError(c, "Failed to get client")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: client})
}

// UpdateClient applies partial updates to a client
// PUT /api/v1/clientes/:id
func (h *CatalogHandler) UpdateClient(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.TaxID != nil {
		updates["tax_id"] = *req.TaxID
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "VALIDATION_ERROR", Message: "No fields to update"},
		})
		return
	}

	if err := h.repo.UpdateClient(c.Request.Context(), id, updates); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "CLIENTE_NOT_FOUND", Message: "Cliente no encontrado"},
			})
			return
		}
		respondInternalError(c, "Failed to update client")
		return
	}

	client, err := h.repo.GetClientByID(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, "Failed to load updated client")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: client})
}

// DeleteClient soft-deletes a client
// DELETE /api/v1/clientes/:id
func (h *CatalogHandler) DeleteClient(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteClient(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "CLIENTE_NOT_FOUND", Message: "Cliente no encontrado"},
			})
			return
		}
		respondInternalError(c, "Failed to delete client")
		return
	}

	msg := "Cliente eliminado"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// ========== Supplier Handlers ==========

// CreateSupplier registers a purchasing counterpart
// POST /api/v1/proveedores
func (h *CatalogHandler) CreateSupplier(c *gin.Context) {
	var req models.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	supplier := &models.Supplier{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}
	if err := h.repo.CreateSupplier(c.Request.Context(), supplier); err != nil {
		respondInternalError(c, "Failed to create supplier")
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: supplier})
}

// ListSuppliers returns paginated suppliers
// GET /api/v1/proveedores
func (h *CatalogHandler) ListSuppliers(c *gin.Context) {
	page, limit := getPagination(c)

	suppliers, total, err := h.repo.ListSuppliers(c.Request.Context(), page, limit)
	if err != nil {
		respondInternalError(c, "Failed to list suppliers")
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success:    true,
		Data:       suppliers,
		Pagination: buildPagination(page, limit, total),
	})
}

// UpdateSupplier applies partial updates to a supplier
// PUT /api/v1/proveedores/:id
func (h *CatalogHandler) UpdateSupplier(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "VALIDATION_ERROR", Message: "No fields to update"},
		})
		return
	}

	if err := h.repo.UpdateSupplier(c.Request.Context(), id, updates); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "PROVEEDOR_NOT_FOUND", Message: "Proveedor no encontrado"},
			})
			return
		}
		respondInternalError(c, "Failed to update supplier")
		return
	}

	msg := "Proveedor actualizado"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// DeleteSupplier removes a supplier
// DELETE /api/v1/proveedores/:id
func (h *CatalogHandler) DeleteSupplier(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteSupplier(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "PROVEEDOR_NOT_FOUND", Message: "Proveedor no encontrado"},
			})
			return
		}
		respondInternalError(c, "Failed to delete supplier")
		return
	}

	msg := "Proveedor eliminado"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// UpsertSupplierPrice inserts or refreshes one supplier/product price
// PUT /api/v1/proveedores/precios
func (h *CatalogHandler) UpsertSupplierPrice(c *gin.Context) {
	var req models.CreateSupplierPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	price := &models.SupplierPrice{
		SupplierID: req.SupplierID,
		ProductID:  req.ProductID,
		Price:      req.Price,
	}
	if req.Currency != nil {
		price.Currency = *req.Currency
	}
	if err := h.repo.UpsertSupplierPrice(c.Request.Context(), price); err != nil {
		respondInternalError(c, "Failed to save supplier price")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: price})
}

// ListSupplierPrices lists prices filtered by supplier and/or product
// GET /api/v1/proveedores/precios?proveedorId=&productId=
func (h *CatalogHandler) ListSupplierPrices(c *gin.Context) {
	page, limit := getPagination(c)

	var supplierID, productID *uuid.UUID
	if raw := c.Query("proveedorId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondValidationError(c, err)
			return
		}
		supplierID = &id
	}
	if raw := c.Query("productId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondValidationError(c, err)
			return
		}
		productID = &id
	}

	prices, total, err := h.repo.ListSupplierPrices(c.Request.Context(), supplierID, productID, page, limit)
	if err != nil {
		respondInternalError(c, "Failed to list supplier prices")
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success:    true,
		Data:       prices,
		Pagination: buildPagination(page, limit, total),
	})
}

// DeleteSupplierPrice removes one supplier/product price entry
// DELETE /api/v1/proveedores/precios/:id
func (h *CatalogHandler) DeleteSupplierPrice(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteSupplierPrice(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "PRECIO_NOT_FOUND", Message: "Precio no encontrado"},
			})
			return
		}
		respondInternalError(c, "Failed to delete supplier price")
		return
	}

	msg := "Precio eliminado"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// ========== Quotation Handlers ==========

// CreateQuotation creates a draft quotation with priced line items
// POST /api/v1/cotizaciones
func (h *CatalogHandler) CreateQuotation(c *gin.Context) {
	var req models.CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if _, err := h.repo.GetClientByID(c.Request.Context(), req.ClientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "CLIENTE_NOT_FOUND", Message: "Cliente no encontrado"},
			})
			return
		}
		respondInternalError(c, "Failed to create quotation")
		return
	}

	number, err := h.repo.GenerateQuotationNumber(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to create quotation")
		return
	}

	quotation := &models.Quotation{
		Number:   number,
		ClientID: req.ClientID,
		Status:   models.QuotationDraft,
		Notes:    req.Notes,
	}
	for _, item := range req.Items {
		quotation.Items = append(quotation.Items, models.QuotationItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	if err := h.repo.CreateQuotation(c.Request.Context(), quotation); err != nil {
		respondInternalError(c, "Failed to create quotation")
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: quotation})
}

// GetQuotation returns one quotation with items and client
// GET /api/v1/cotizaciones/:id
func (h *CatalogHandler) GetQuotation(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	quotation, err := h.repo.GetQuotationByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		respondQuotationNotFound(c)
		return
	}
	if err != nil {
		respondInternalError(c, "Failed to get quotation")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: quotation})
}

// ListQuotations lists quotations, optionally filtered by status
// GET /api/v1/cotizaciones?status=DRAFT|SENT|CONVERTED
func (h *CatalogHandler) ListQuotations(c *gin.Context) {
	page, limit := getPagination(c)

	var status *models.QuotationStatus
	if raw := strings.ToUpper(c.Query("status")); raw != "" {
		s := models.QuotationStatus(raw)
		status = &s
	}

	quotations, total, err := h.repo.ListQuotations(c.Request.Context(), status, page, limit)
	if err != nil {
		respondInternalError(c, "Failed to list quotations")
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success:    true,
		Data:       quotations,
		Pagination: buildPagination(page, limit, total),
	})
}

// ConvertQuotation marks a quotation as converted to a sale; idempotent
// POST /api/v1/cotizaciones/:id/convertir
func (h *CatalogHandler) ConvertQuotation(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var body struct {
		CRMRef string `json:"crmRef"`
	}
	_ = c.ShouldBindJSON(&body)

	quotation, err := h.repo.ConvertQuotation(c.Request.Context(), id, body.CRMRef)
	if errors.Is(err, repository.ErrNotFound) {
		respondQuotationNotFound(c)
		return
	}
	if err != nil {
		respondInternalError(c, "Failed to convert quotation")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: quotation})
}

// DeleteQuotation removes a quotation and its items
// DELETE /api/v1/cotizaciones/:id
func (h *CatalogHandler) DeleteQuotation(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteQuotation(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondQuotationNotFound(c)
			return
		}
		respondInternalError(c, "Failed to delete quotation")
		return
	}

	msg := "Cotización eliminada"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

func respondProductNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: "PRODUCTO_NOT_FOUND", Message: "Producto no encontrado"},
	})
}

func respondQuotationNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: "COTIZACION_NOT_FOUND", Message: "Cotización no encontrada"},
	})
}
