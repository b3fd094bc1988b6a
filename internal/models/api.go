package models

import (
	"github.com/google/uuid"
)

// Request/Response models

type CreateInventoryRequest struct {
	ProductID        uuid.UUID `json:"productId" binding:"required"`
	Code             string    `json:"codigo" binding:"required,min=1,max=50"`
	Stock            int       `json:"stock" binding:"gte=0"`
	MinimumThreshold int       `json:"minimo" binding:"gte=0"`
	Location         *string   `json:"ubicacion,omitempty"`
}

type UpdateInventoryRequest struct {
	Code             *string `json:"codigo,omitempty"`
	Stock            *int    `json:"stock,omitempty" binding:"omitempty,gte=0"`
	MinimumThreshold *int    `json:"minimo,omitempty" binding:"omitempty,gte=0"`
	Location         *string `json:"ubicacion,omitempty"`
}

type PostMovementRequest struct {
	Kind     MovementKind `json:"tipo" binding:"required"`
	Quantity int          `json:"cantidad" binding:"required,gt=0"`
	Note     *string      `json:"nota,omitempty"`
}

type UpdateRuleRequest struct {
	Enabled           *bool `json:"enabled,omitempty"`
	ThresholdOverride *int  `json:"thresholdOverride,omitempty" binding:"omitempty,gte=0"`
	CooldownMinutes   *int  `json:"cooldownMinutes,omitempty" binding:"omitempty,gte=0"`
}

type CreateProductRequest struct {
	SKU      string          `json:"sku" binding:"required,min=1,max=100"`
	Name     string          `json:"nombre" binding:"required,min=1,max=255"`
	Category ProductCategory `json:"tipo,omitempty"`
	Price    float64         `json:"precio" binding:"gte=0"`
	PhotoURL *string         `json:"fotoUrl,omitempty"`
}

type UpdateProductRequest struct {
	Name     *string          `json:"nombre,omitempty"`
	Category *ProductCategory `json:"tipo,omitempty"`
	Price    *float64         `json:"precio,omitempty" binding:"omitempty,gte=0"`
	PhotoURL *string          `json:"fotoUrl,omitempty"`
}

type CreateClientRequest struct {
	Name    string  `json:"nombre" binding:"required,min=1,max=255"`
	TaxID   *string `json:"rut,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"telefono,omitempty"`
	Address *string `json:"direccion,omitempty"`
}

type UpdateClientRequest struct {
	Name    *string `json:"nombre,omitempty" binding:"omitempty,min=1,max=255"`
	TaxID   *string `json:"rut,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"telefono,omitempty"`
	Address *string `json:"direccion,omitempty"`
}

type CreateSupplierRequest struct {
	Name  string  `json:"nombre" binding:"required,min=1,max=255"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"telefono,omitempty"`
}

type UpdateSupplierRequest struct {
	Name  *string `json:"nombre,omitempty" binding:"omitempty,min=1,max=255"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"telefono,omitempty"`
}

type CreateSupplierPriceRequest struct {
	SupplierID uuid.UUID `json:"proveedorId" binding:"required"`
	ProductID  uuid.UUID `json:"productId" binding:"required"`
	Price      float64   `json:"precio" binding:"required,gt=0"`
	Currency   *string   `json:"moneda,omitempty"`
}

type CreateQuotationItemRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Quantity  int       `json:"cantidad" binding:"required,gt=0"`
	UnitPrice float64   `json:"precioUnitario" binding:"required,gte=0"`
}

type CreateQuotationRequest struct {
	ClientID uuid.UUID                    `json:"clienteId" binding:"required"`
	Notes    *string                      `json:"notas,omitempty"`
	Items    []CreateQuotationItemRequest `json:"items" binding:"required,min=1"`
}

// InventoryResponse carries the record plus the evaluation outcome of the
// mutation that produced it.
type InventoryResponse struct {
	Success       bool              `json:"success"`
	Data          *InventoryRecord  `json:"data,omitempty"`
	StockCritical *TransitionResult `json:"stockCritical,omitempty"`
	Message       *string           `json:"message,omitempty"`
}

type MovementResponse struct {
	Success       bool              `json:"success"`
	Data          *StockMovement    `json:"data,omitempty"`
	Inventory     *InventoryRecord  `json:"inventario,omitempty"`
	StockCritical *TransitionResult `json:"stockCritical,omitempty"`
}

type AlertCountResponse struct {
	Success bool             `json:"success"`
	Data    map[string]int64 `json:"data"`
}

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

type ListResponse struct {
	Success    bool            `json:"success"`
	Data       interface{}     `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

// PaginationMeta represents pagination metadata
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}
