package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a quotation recipient. Plain persistence, uniqueness on tax id.
type Client struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name    string    `json:"nombre" gorm:"type:varchar(255);not null"`
	TaxID   *string   `json:"rut,omitempty" gorm:"type:varchar(50);uniqueIndex"`
	Email   *string   `json:"email,omitempty" gorm:"type:varchar(255)"`
	Phone   *string   `json:"telefono,omitempty" gorm:"type:varchar(50)"`
	Address *string   `json:"direccion,omitempty" gorm:"type:varchar(255)"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// Supplier is a purchasing counterpart for supplier price lists.
type Supplier struct {
	ID    uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name  string    `json:"nombre" gorm:"type:varchar(255);not null"`
	Email *string   `json:"email,omitempty" gorm:"type:varchar(255)"`
	Phone *string   `json:"telefono,omitempty" gorm:"type:varchar(50)"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// SupplierPrice records what one supplier charges for one product.
type SupplierPrice struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SupplierID uuid.UUID `json:"proveedorId" gorm:"type:uuid;not null;index;uniqueIndex:idx_supplier_product"`
	ProductID  uuid.UUID `json:"productId" gorm:"type:uuid;not null;index;uniqueIndex:idx_supplier_product"`
	Price      float64   `json:"precio" gorm:"type:decimal(12,2);not null"`
	Currency   string    `json:"moneda" gorm:"type:varchar(3);not null;default:'CLP'"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Supplier *Supplier `json:"proveedor,omitempty" gorm:"foreignKey:SupplierID"`
	Product  *Product  `json:"producto,omitempty" gorm:"foreignKey:ProductID"`
}

// QuotationStatus is the simple quotation lifecycle. Conversion to CRM is a
// status copy, not a workflow.
type QuotationStatus string

const (
	QuotationDraft     QuotationStatus = "DRAFT"
	QuotationSent      QuotationStatus = "SENT"
	QuotationConverted QuotationStatus = "CONVERTED"
)

// Quotation groups priced line items for a client.
type Quotation struct {
	ID       uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ClientID uuid.UUID       `json:"clienteId" gorm:"type:uuid;not null;index"`
	Number   string          `json:"numero" gorm:"type:varchar(50);not null;uniqueIndex"`
	Status   QuotationStatus `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Total    float64         `json:"total" gorm:"type:decimal(12,2);not null;default:0"`
	Notes    *string         `json:"notas,omitempty" gorm:"type:text"`

	ConvertedAt *time.Time `json:"convertedAt,omitempty"`
	CRMRef      *string    `json:"crmRef,omitempty" gorm:"type:varchar(100)"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`

	Client *Client         `json:"cliente,omitempty" gorm:"foreignKey:ClientID"`
	Items  []QuotationItem `json:"items,omitempty" gorm:"foreignKey:QuotationID"`
}

// QuotationItem is one priced line of a quotation.
type QuotationItem struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	QuotationID uuid.UUID `json:"cotizacionId" gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	Quantity    int       `json:"cantidad" gorm:"not null"`
	UnitPrice   float64   `json:"precioUnitario" gorm:"type:decimal(12,2);not null"`
	Subtotal    float64   `json:"subtotal" gorm:"type:decimal(12,2);not null"`

	CreatedAt time.Time `json:"createdAt"`
}

func (Client) TableName() string {
	return "clients"
}

func (Supplier) TableName() string {
	return "suppliers"
}

func (SupplierPrice) TableName() string {
	return "supplier_prices"
}

func (Quotation) TableName() string {
	return "quotations"
}

func (QuotationItem) TableName() string {
	return "quotation_items"
}
