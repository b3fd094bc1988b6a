package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"inventario-backend/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
)

// StockRepositoryInterface is the unit-of-work surface shared by the
// stock-critical evaluator and its orchestrators. WithTransaction hands the
// callback a repository bound to the transaction; every write issued through
// it commits or rolls back together with the triggering mutation.
type StockRepositoryInterface interface {
	WithTransaction(ctx context.Context, fn func(txRepo StockRepositoryInterface) error) error

	// Inventory
	GetInventoryWithProduct(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error)
	GetInventoryByProductID(ctx context.Context, productID uuid.UUID) (*models.InventoryRecord, error)
	GetInventoryByCode(ctx context.Context, code string) (*models.InventoryRecord, error)
	CreateInventory(ctx context.Context, record *models.InventoryRecord) error
	UpdateInventory(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdateInventoryStock(ctx context.Context, id uuid.UUID, stock int) error
	DeleteInventory(ctx context.Context, id uuid.UUID) error
	ListInventory(ctx context.Context, page, limit int) ([]models.InventoryRecord, int64, error)
	ListStockTrackedInventoryIDs(ctx context.Context) ([]uuid.UUID, error)

	// Movements
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, inventoryID uuid.UUID, page, limit int) ([]models.StockMovement, int64, error)

	// Rules
	GetRule(ctx context.Context, inventoryID uuid.UUID) (*models.StockCriticalRule, error)
	UpsertRule(ctx context.Context, rule *models.StockCriticalRule) error
	StampRuleNotified(ctx context.Context, inventoryID uuid.UUID, at time.Time) error

	// Alerts
	GetActiveAlert(ctx context.Context, inventoryID uuid.UUID) (*models.StockAlert, error)
	GetAlertByID(ctx context.Context, id uuid.UUID) (*models.StockAlert, error)
	CreateAlert(ctx context.Context, alert *models.StockAlert) error
	UpdateAlertResend(ctx context.Context, id uuid.UUID, stockAtAlert, threshold int, sentAt time.Time) error
	ResolveAlert(ctx context.Context, id uuid.UUID, at time.Time) error
	AckAlert(ctx context.Context, id uuid.UUID, at time.Time) error
	ListAlerts(ctx context.Context, status *models.AlertStatus, page, limit int) ([]models.StockAlert, int64, error)
	CountAlertsByStatus(ctx context.Context) (map[string]int64, error)

	// Notifications
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, unreadOnly bool, page, limit int) ([]models.Notification, int64, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID, at time.Time) error

	// Products (needed transactionally by the bulk importer)
	GetProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
}

// StockRepository is the gorm-backed implementation.
type StockRepository struct {
	db *gorm.DB
}

var _ StockRepositoryInterface = (*StockRepository)(nil)

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

// EnsureIndexes creates the constraints AutoMigrate cannot express, in
// particular the partial unique index that makes "at most one active alert
// per inventory" structural instead of assumed.
func (r *StockRepository) EnsureIndexes() error {
	return r.db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_stock_alerts_one_active
		 ON stock_alerts (inventory_id) WHERE is_active`,
	).Error
}

// WithTransaction runs fn against a repository bound to a single database
// transaction. Nested calls reuse gorm's savepoint handling.
func (r *StockRepository) WithTransaction(ctx context.Context, fn func(txRepo StockRepositoryInterface) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&StockRepository{db: tx})
	})
}

// ========== Inventory ==========

func (r *StockRepository) GetInventoryWithProduct(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *StockRepository) GetInventoryByProductID(ctx context.Context, productID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *StockRepository) GetInventoryByCode(ctx context.Context, code string) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *StockRepository) CreateInventory(ctx context.Context, record *models.InventoryRecord) error {
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *StockRepository) UpdateInventory(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.InventoryRecord{}).
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

func (r *StockRepository) UpdateInventoryStock(ctx context.Context, id uuid.UUID, stock int) error {
	return r.UpdateInventory(ctx, id, map[string]interface{}{"stock": stock})
}

// DeleteInventory removes the record and cascades its movements, alerts and
// rule in the same statement batch. Callers wrap this in WithTransaction.
func (r *StockRepository) DeleteInventory(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("inventory_id = ?", id).Delete(&models.StockMovement{}).Error; err != nil {
		return err
	}
	if err := db.Where("inventory_id = ?", id).Delete(&models.StockAlert{}).Error; err != nil {
		return err
	}
	if err := db.Where("inventory_id = ?", id).Delete(&models.StockCriticalRule{}).Error; err != nil {
		return err
	}
	result := db.Where("id = ?", id).Delete(&models.InventoryRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StockRepository) ListInventory(ctx context.Context, page, limit int) ([]models.InventoryRecord, int64, error) {
	var records []models.InventoryRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&models.InventoryRecord{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		offset := (page - 1) * limit
		query = query.Offset(offset).Limit(limit)
	}

	err := query.Preload("Product").Order("code ASC").Find(&records).Error
	return records, total, err
}

func (r *StockRepository) ListStockTrackedInventoryIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.InventoryRecord{}).
		Joins("JOIN products ON products.id = inventory_records.product_id").
		Where("products.category = ? AND products.deleted_at IS NULL", models.CategoryProducto).
		Pluck("inventory_records.id", &ids).Error
	return ids, err
}

// ========== Movements ==========

func (r *StockRepository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	movement.CreatedAt = time.Now()
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *StockRepository) ListMovements(ctx context.Context, inventoryID uuid.UUID, page, limit int) ([]models.StockMovement, int64, error) {
	var movements []models.StockMovement
	var total int64

	query := r.db.WithContext(ctx).Model(&models.StockMovement{}).
		Where("inventory_id = ?", inventoryID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		offset := (page - 1) * limit
		query = query.Offset(offset).Limit(limit)
	}

	err := query.Order("created_at DESC").Find(&movements).Error
	return movements, total, err
}

// ========== Rules ==========

func (r *StockRepository) GetRule(ctx context.Context, inventoryID uuid.UUID) (*models.StockCriticalRule, error) {
	var rule models.StockCriticalRule
	err := r.db.WithContext(ctx).
		Where("inventory_id = ?", inventoryID).
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

func (r *StockRepository) UpsertRule(ctx context.Context, rule *models.StockCriticalRule) error {
	existing, err := r.GetRule(ctx, rule.InventoryID)
	if errors.Is(err, ErrNotFound) {
		rule.CreatedAt = time.Now()
		rule.UpdatedAt = time.Now()
		return r.db.WithContext(ctx).Create(rule).Error
	}
	if err != nil {
		return err
	}

	rule.ID = existing.ID
	rule.CreatedAt = existing.CreatedAt
	rule.LastNotifiedAt = existing.LastNotifiedAt
	rule.UpdatedAt = time.Now()
	// Save, not Updates: nil override/cooldown must clear the columns.
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *StockRepository) StampRuleNotified(ctx context.Context, inventoryID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.StockCriticalRule{}).
		Where("inventory_id = ?", inventoryID).
		Updates(map[string]interface{}{
			"last_notified_at": at,
			"updated_at":       at,
		}).Error
}

// ========== Alerts ==========

// GetActiveAlert returns the active alert for an inventory. The partial
// unique index guarantees at most one row; ordering by opened_at keeps the
// most recent one authoritative if the index is ever missing.
func (r *StockRepository) GetActiveAlert(ctx context.Context, inventoryID uuid.UUID) (*models.StockAlert, error) {
	var alert models.StockAlert
	err := r.db.WithContext(ctx).
		Where("inventory_id = ? AND is_active = ?", inventoryID, true).
		Order("opened_at DESC").
		First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

func (r *StockRepository) GetAlertByID(ctx context.Context, id uuid.UUID) (*models.StockAlert, error) {
	var alert models.StockAlert
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

func (r *StockRepository) CreateAlert(ctx context.Context, alert *models.StockAlert) error {
	alert.CreatedAt = time.Now()
	alert.UpdatedAt = time.Now()
	if alert.Status == "" {
		alert.Status = models.AlertStatusOpen
	}
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *StockRepository) UpdateAlertResend(ctx context.Context, id uuid.UUID, stockAtAlert, threshold int, sentAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.StockAlert{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock_at_alert": stockAtAlert,
			"threshold":      threshold,
			"last_sent_at":   sentAt,
			"updated_at":     sentAt,
		}).Error
}

func (r *StockRepository) ResolveAlert(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.StockAlert{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      models.AlertStatusResolved,
			"is_active":   false,
			"resolved_at": at,
			"updated_at":  at,
		}).Error
}

func (r *StockRepository) AckAlert(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.StockAlert{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.AlertStatusAck,
			"updated_at": at,
		}).Error
}

func (r *StockRepository) ListAlerts(ctx context.Context, status *models.AlertStatus, page, limit int) ([]models.StockAlert, int64, error) {
	var alerts []models.StockAlert
	var total int64

	query := r.db.WithContext(ctx).Model(&models.StockAlert{})
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

	err := query.Order("opened_at DESC").Find(&alerts).Error
	return alerts, total, err
}

func (r *StockRepository) CountAlertsByStatus(ctx context.Context) (map[string]int64, error) {
	var results []struct {
		Status models.AlertStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.StockAlert{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{
		string(models.AlertStatusOpen):     0,
		string(models.AlertStatusAck):      0,
		string(models.AlertStatusResolved): 0,
	}
	for _, res := range results {
		counts[string(res.Status)] = res.Count
	}
	return counts, nil
}

// ========== Notifications ==========

func (r *StockRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	n.CreatedAt = time.Now()
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *StockRepository) ListNotifications(ctx context.Context, unreadOnly bool, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Notification{})
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		offset := (page - 1) * limit
		query = query.Offset(offset).Limit(limit)
	}

	err := query.Order("created_at DESC").Find(&notifications).Error
	return notifications, total, err
}

func (r *StockRepository) MarkNotificationRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Zero rows also covers the already-read case, which stays a no-op.
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Notification{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// ========== Products ==========

func (r *StockRepository) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *StockRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	if p.Category == "" {
		p.Category = models.CategoryProducto
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *StockRepository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
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
