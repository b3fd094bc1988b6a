package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inventario-backend/internal/models"
)

// CatalogRepository handles the plain CRUD entities: products, clients,
// suppliers, supplier prices and quotations. No invariants beyond
// uniqueness live here.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ========== Products ==========

func (r *CatalogRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()
	if product.Category == "" {
		product.Category = models.CategoryProducto
	}
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *CatalogRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *CatalogRepository) SKUExists(ctx context.Context, sku string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("sku = ?", sku).
		Count(&count).Error
	return count > 0, err
}

func (r *CatalogRepository) ListProducts(ctx context.Context, category *models.ProductCategory, page, limit int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if category != nil {
		query = query.Where("category = ?", *category)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		offset := (page - 1) * limit
		query = query.Offset(offset).Limit(limit)
	}

	err := query.Order("name ASC").Find(&products).Error
	return products, total, err
}

func (r *CatalogRepository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CatalogRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ========== Clients ==========

func (r *CatalogRepository) CreateClient(ctx context.Context, client *models.Client) error {
	client.CreatedAt = time.Now()
	client.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *CatalogRepository) GetClientByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (r *CatalogRepository) ListClients(ctx context.Context, page, limit int) ([]models.Client, int64, error) {
	var clients []models.Client
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Client{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		offset := (page - 1) * limit
		query = query.Offset(offset).Limit(limit)
	}

	err := query.Order("name ASC").Find(&clients).Error
	return clients, total, err
}

func (r *CatalogRepository) UpdateClient(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.Client{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CatalogRepository) DeleteClient(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Client{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ========== Suppliers ==========

func (r *CatalogRepository) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	supplier.CreatedAt = time.Now()
	supplier.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *CatalogRepository) GetSupplierByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

func (r *CatalogRepository) ListSuppliers(ctx context.Context, page, limit int) ([]models.Supplier, int64, error) {
	var suppliers []models.Supplier
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Supplier{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		offset := (page - 1) * limit
		query = query.Offset(offset).Limit(limit)
	}

	err := query.Order("name ASC").Find(&suppliers).Error
	return suppliers, total, err
}

func (r *CatalogRepository) UpdateSupplier(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.Supplier{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CatalogRepository) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Supplier{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ========== Supplier Prices ==========

func (r *CatalogRepository) UpsertSupplierPrice(ctx context.Context, price *models.SupplierPrice) error {
	price.CreatedAt = time.Now()
	price.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "supplier_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "currency", "updated_at"}),
	}).Create(price).Error
}

func (r *CatalogRepository) ListSupplierPrices(ctx context.Context, supplierID *uuid.UUID, productID *uuid.UUID, page, limit int) ([]models.SupplierPrice, int64, error) {
	var prices []models.SupplierPrice
	var total int64

	query := r.db.WithContext(ctx).Model(&models.SupplierPrice{})
	if supplierID != nil {
		query = query.Where("supplier_id = ?", *supplierID)
	}
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		offset := (page - 1) * limit
		query = query.Offset(offset).Limit(limit)
	}

	err := query.Preload("Supplier").Preload("Product").Order("updated_at DESC").Find(&prices).Error
	return prices, total, err
}

func (r *CatalogRepository) DeleteSupplierPrice(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SupplierPrice{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ========== Quotations ==========

// GenerateQuotationNumber generates a sequential, human-readable number.
func (r *CatalogRepository) GenerateQuotationNumber(ctx context.Context) (string, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Quotation{}).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("COT-%s-%06d", time.Now().Format("200601"), count+1), nil
}

func (r *CatalogRepository) CreateQuotation(ctx context.Context, quotation *models.Quotation) error {
	if quotation.Number == "" {
		number, err := r.GenerateQuotationNumber(ctx)
		if err != nil {
			return err
		}
		quotation.Number = number
	}

	quotation.CreatedAt = time.Now()
	quotation.UpdatedAt = time.Now()

	total := 0.0
	for i := range quotation.Items {
		quotation.Items[i].Subtotal = quotation.Items[i].UnitPrice * float64(quotation.Items[i].Quantity)
		quotation.Items[i].CreatedAt = time.Now()
		total += quotation.Items[i].Subtotal
	}
	quotation.Total = total

	return r.db.WithContext(ctx).Create(quotation).Error
}

func (r *CatalogRepository) GetQuotationByID(ctx context.Context, id uuid.UUID) (*models.Quotation, error) {
	var quotation models.Quotation
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Client").
		Where("id = ?", id).
		First(&quotation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &quotation, nil
}

func (r *CatalogRepository) ListQuotations(ctx context.Context, status *models.QuotationStatus, page, limit int) ([]models.Quotation, int64, error) {
	var quotations []models.Quotation
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Quotation{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		offset := (page - 1) * limit
		query = query.Offset(offset).Limit(limit)
	}

	err := query.Preload("Client").Order("created_at DESC").Find(&quotations).Error
	return quotations, total, err
}

// ConvertQuotation marks a quotation as converted and records the CRM
// reference. Converting an already converted quotation is a no-op.
func (r *CatalogRepository) ConvertQuotation(ctx context.Context, id uuid.UUID, crmRef string) (*models.Quotation, error) {
	quotation, err := r.GetQuotationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if quotation.Status == models.QuotationConverted {
		return quotation, nil
	}

	now := time.Now()
	err = r.db.WithContext(ctx).Model(&models.Quotation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.QuotationConverted,
			"converted_at": &now,
			"crm_ref":      crmRef,
			"updated_at":   now,
		}).Error
	if err != nil {
		return nil, err
	}

	quotation.Status = models.QuotationConverted
	quotation.ConvertedAt = &now
	quotation.CRMRef = &crmRef
	return quotation, nil
}

func (r *CatalogRepository) DeleteQuotation(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Quotation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
