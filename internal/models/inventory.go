package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProductCategory distinguishes stock-tracked products from freight/service
// lines that never carry inventory.
type ProductCategory string

const (
	CategoryProducto ProductCategory = "producto"
	CategoryFlete    ProductCategory = "flete"
)

// IsStockTracked reports whether inventory and critical-stock tracking apply.
func (c ProductCategory) IsStockTracked() bool {
	return c == CategoryProducto
}

// Product is a catalog entry. Only "producto" category rows own an
// InventoryRecord; "flete" rows are billable services with no stock.
type Product struct {
	ID       uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SKU      string          `json:"sku" gorm:"type:varchar(100);not null;uniqueIndex"`
	Name     string          `json:"nombre" gorm:"type:varchar(255);not null"`
	Category ProductCategory `json:"tipo" gorm:"type:varchar(20);not null;default:'producto';index"`
	Price    float64         `json:"precio" gorm:"type:decimal(12,2);not null;default:0"`
	PhotoURL *string         `json:"fotoUrl,omitempty" gorm:"type:varchar(512)"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// InventoryRecord holds the stock and threshold state for one product.
// Stock is only guarded against going negative at movement time; a direct
// edit may leave any value the caller asserts.
type InventoryRecord struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID        uuid.UUID `json:"productId" gorm:"type:uuid;not null;uniqueIndex"`
	Code             string    `json:"codigo" gorm:"type:varchar(50);not null;uniqueIndex"`
	Stock            int       `json:"stock" gorm:"not null;default:0"`
	MinimumThreshold int       `json:"minimo" gorm:"not null;default:0"`
	Location         *string   `json:"ubicacion,omitempty" gorm:"type:varchar(255)"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Product *Product `json:"producto,omitempty" gorm:"foreignKey:ProductID"`
}

// MovementKind classifies a ledger entry. Quantity semantics depend on it:
// ENTRADA adds, SALIDA subtracts, AJUSTE sets the absolute stock value.
type MovementKind string

const (
	MovementEntrada MovementKind = "ENTRADA"
	MovementSalida  MovementKind = "SALIDA"
	MovementAjuste  MovementKind = "AJUSTE"
)

// Valid reports whether the kind is one of the three ledger entry types.
func (k MovementKind) Valid() bool {
	return k == MovementEntrada || k == MovementSalida || k == MovementAjuste
}

// StockMovement is an immutable ledger entry. Rows are only ever appended;
// there is no update or delete path except the cascade when the owning
// inventory record is removed.
type StockMovement struct {
	ID          uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	InventoryID uuid.UUID    `json:"inventarioId" gorm:"type:uuid;not null;index"`
	Kind        MovementKind `json:"tipo" gorm:"type:varchar(10);not null"`
	Quantity    int          `json:"cantidad" gorm:"not null"`
	Note        *string      `json:"nota,omitempty" gorm:"type:text"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// StockCriticalRule is an optional per-inventory override of the alerting
// policy. A missing row is equivalent to {enabled:true, override:nil,
// cooldown:default}. LastNotifiedAt is written only by the evaluator.
type StockCriticalRule struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	InventoryID       uuid.UUID  `json:"inventarioId" gorm:"type:uuid;not null;uniqueIndex"`
	Enabled           bool       `json:"enabled" gorm:"not null;default:true"`
	ThresholdOverride *int       `json:"thresholdOverride,omitempty"`
	CooldownMinutes   *int       `json:"cooldownMinutes,omitempty"`
	LastNotifiedAt    *time.Time `json:"lastNotifiedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AlertStatus is the lifecycle state of a StockAlert episode.
type AlertStatus string

const (
	AlertStatusOpen     AlertStatus = "OPEN"
	AlertStatusAck      AlertStatus = "ACK"
	AlertStatusResolved AlertStatus = "RESOLVED"
)

// StockAlert represents one episode of criticality for an inventory record.
// At most one alert per inventory may have is_active=true; a partial unique
// index (see repository migration) makes the invariant structural.
type StockAlert struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	InventoryID  uuid.UUID      `json:"inventarioId" gorm:"type:uuid;not null;index"`
	Threshold    int            `json:"threshold" gorm:"not null"`
	StockAtAlert int            `json:"stockAtAlert" gorm:"not null"`
	Status       AlertStatus    `json:"status" gorm:"type:varchar(20);not null;default:'OPEN';index"`
	IsActive     bool           `json:"isActive" gorm:"not null;default:true;index"`
	OpenedAt     time.Time      `json:"openedAt" gorm:"not null"`
	LastSentAt   time.Time      `json:"lastSentAt" gorm:"not null"`
	ResolvedAt   *time.Time     `json:"resolvedAt,omitempty"`
	Channel      string         `json:"channel" gorm:"type:varchar(50);not null;default:'app'"`
	Meta         datatypes.JSON `json:"meta,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Notification is an append-only row later drained by the polling UI. The
// core never reads notifications back.
type Notification struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Type      string         `json:"type" gorm:"type:varchar(50);not null;index"`
	Title     string         `json:"title" gorm:"type:varchar(255);not null"`
	Message   string         `json:"message" gorm:"type:text;not null"`
	Meta      datatypes.JSON `json:"meta,omitempty" gorm:"type:jsonb"`
	ReadAt    *time.Time     `json:"readAt,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (Product) TableName() string {
	return "products"
}

func (InventoryRecord) TableName() string {
	return "inventory_records"
}

func (StockMovement) TableName() string {
	return "stock_movements"
}

func (StockCriticalRule) TableName() string {
	return "stock_critical_rules"
}

func (StockAlert) TableName() string {
	return "stock_alerts"
}

func (Notification) TableName() string {
	return "notifications"
}

// TransitionAction is the outcome of one stock-critical evaluation.
type TransitionAction string

const (
	ActionNoop     TransitionAction = "noop"
	ActionCreated  TransitionAction = "created"
	ActionResent   TransitionAction = "resent"
	ActionResolved TransitionAction = "resolved"
)

// Noop reason codes. The evaluator never fails for business reasons; every
// unsatisfiable precondition collapses into one of these.
const (
	ReasonInventarioNotFound = "inventario_not_found"
	ReasonProductoEsFlete    = "producto_es_flete"
	ReasonRuleDisabled       = "rule_disabled"
	ReasonCooldown           = "cooldown"
)

// TransitionResult is returned by the evaluator and surfaced to API callers
// under the "stockCritical" response key.
type TransitionResult struct {
	Action  TransitionAction `json:"action"`
	AlertID *uuid.UUID       `json:"alertId,omitempty"`
	Reason  string           `json:"reason,omitempty"`
}
