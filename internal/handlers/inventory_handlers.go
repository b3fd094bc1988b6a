package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"inventario-backend/internal/events"
	"inventario-backend/internal/models"
	"inventario-backend/internal/services"
)

type InventoryHandler struct {
	inventory *services.InventoryService
	movements *services.MovementService
	publisher *events.StockEventPublisher
}

func NewInventoryHandler(inventory *services.InventoryService, movements *services.MovementService, publisher *events.StockEventPublisher) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		movements: movements,
		publisher: publisher,
	}
}

// ========== Inventory Handlers ==========

// CreateInventory creates an inventory record for a product
// POST /api/v1/inventario
func (h *InventoryHandler) CreateInventory(c *gin.Context) {
	var req models.CreateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := h.inventory.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.publishTransition(c, result.Inventory, result.StockCritical)

	c.JSON(http.StatusCreated, models.InventoryResponse{
		Success:       true,
		Data:          result.Inventory,
		StockCritical: result.StockCritical,
	})
}

// ListInventory returns paginated inventory records
// GET /api/v1/inventario
func (h *InventoryHandler) ListInventory(c *gin.Context) {
	page, limit := getPagination(c)

	records, total, err := h.inventory.List(c.Request.Context(), page, limit)
	if err != nil {
		respondInternalError(c, "Failed to list inventory")
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success:    true,
		Data:       records,
		Pagination: buildPagination(page, limit, total),
	})
}

// GetInventory returns one inventory record with its product
// GET /api/v1/inventario/:id
func (h *InventoryHandler) GetInventory(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	record, err := h.inventory.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.InventoryResponse{Success: true, Data: record})
}

// UpdateInventory edits inventory fields; stock or threshold changes
// re-evaluate criticality in the same transaction
// PUT /api/v1/inventario/:id
func (h *InventoryHandler) UpdateInventory(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := h.inventory.Update(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.publishTransition(c, result.Inventory, result.StockCritical)

	c.JSON(http.StatusOK, models.InventoryResponse{
		Success:       true,
		Data:          result.Inventory,
		StockCritical: result.StockCritical,
	})
}

// DeleteInventory removes the record plus its movements, alerts and rule
// DELETE /api/v1/inventario/:id
func (h *InventoryHandler) DeleteInventory(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.inventory.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	msg := "Registro de inventario eliminado"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// ========== Movement Handlers ==========

// PostMovement appends a ledger entry and returns the updated inventory
// POST /api/v1/inventario/:id/movimientos
func (h *InventoryHandler) PostMovement(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.PostMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := h.movements.PostMovement(c.Request.Context(), services.PostMovementInput{
		InventoryID: id,
		Kind:        req.Kind,
		Quantity:    req.Quantity,
		Note:        req.Note,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if product := result.Inventory.Product; product != nil {
		reason := string(result.Movement.Kind)
		if result.Movement.Note != nil {
			reason = *result.Movement.Note
		}
		_ = h.publisher.PublishStockAdjusted(
			c.Request.Context(),
			product.ID.String(), product.Name, product.SKU,
			result.PreviousStock, result.Inventory.Stock, reason,
		)
	}
	h.publishTransition(c, result.Inventory, result.StockCritical)

	c.JSON(http.StatusCreated, models.MovementResponse{
		Success:       true,
		Data:          result.Movement,
		Inventory:     result.Inventory,
		StockCritical: result.StockCritical,
	})
}

// ListMovements returns the ledger for one inventory, newest first
// GET /api/v1/inventario/:id/movimientos
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	page, limit := getPagination(c)
	movements, total, err := h.movements.ListMovements(c.Request.Context(), id, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success:    true,
		Data:       movements,
		Pagination: buildPagination(page, limit, total),
	})
}

// ========== Rule Handlers ==========

// GetRule returns the alerting override, or implicit defaults when absent
// GET /api/v1/inventario/:id/regla
func (h *InventoryHandler) GetRule(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	rule, err := h.inventory.GetRule(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: rule})
}

// UpdateRule upserts the alerting override
// PUT /api/v1/inventario/:id/regla
func (h *InventoryHandler) UpdateRule(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	rule, err := h.inventory.UpdateRule(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: rule})
}

// publishTransition mirrors alert transitions onto the event bus after the
// owning transaction committed. Publish failures are logged inside the
// publisher and never surface to the HTTP caller.
func (h *InventoryHandler) publishTransition(c *gin.Context, inv *models.InventoryRecord, transition *models.TransitionResult) {
	if transition == nil || inv == nil || inv.Product == nil {
		return
	}
	product := inv.Product

	switch transition.Action {
	case models.ActionCreated, models.ActionResent:
		_ = h.publisher.PublishStockCritical(
			c.Request.Context(),
			product.ID.String(), product.Name, product.SKU,
			inv.Stock, inv.MinimumThreshold,
		)
	case models.ActionResolved:
		_ = h.publisher.PublishStockRecovered(
			c.Request.Context(),
			product.ID.String(), product.Name, product.SKU,
			inv.Stock, inv.MinimumThreshold,
		)
	}
}

// ========== Shared helpers ==========

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "VALIDATION_ERROR", Message: "Invalid " + name + " parameter"},
		})
		return uuid.Nil, false
	}
	return id, true
}

func getPagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func buildPagination(page, limit int, total int64) *models.PaginationMeta {
	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}
	return &models.PaginationMeta{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: "VALIDATION_ERROR", Message: err.Error()},
	})
}

func respondInternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: "INTERNAL_ERROR", Message: message},
	})
}

// respondServiceError maps domain errors onto wire codes and status codes.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInventoryNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INV_NOT_FOUND", Message: "Registro de inventario no encontrado"},
		})
	case errors.Is(err, services.ErrProductNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "PRODUCTO_NOT_FOUND", Message: "Producto no encontrado"},
		})
	case errors.Is(err, services.ErrProductoEsFlete):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "PRODUCTO_ES_FLETE", Message: "Un flete no maneja stock"},
		})
	case errors.Is(err, services.ErrStockNegativo):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "STOCK_NEGATIVO", Message: "El movimiento dejaría el stock en negativo"},
		})
	case errors.Is(err, services.ErrInvalidMovement):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "VALIDATION_ERROR", Message: "Tipo o cantidad de movimiento inválidos"},
		})
	case errors.Is(err, services.ErrDuplicateCode):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "DUPLICATE_CODE", Message: "El código de inventario ya existe"},
		})
	case errors.Is(err, services.ErrInventoryExists):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "DUPLICATE_CODE", Message: "El producto ya tiene un registro de inventario"},
		})
	case errors.Is(err, services.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "ALERT_NOT_FOUND", Message: "Alerta no encontrada"},
		})
	default:
		respondInternalError(c, "Unexpected error")
	}
}
