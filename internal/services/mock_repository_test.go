package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"inventario-backend/internal/models"
	"inventario-backend/internal/repository"
)

// MockStockRepository is a mock implementation of StockRepositoryInterface
type MockStockRepository struct {
	mock.Mock
}

var _ repository.StockRepositoryInterface = (*MockStockRepository)(nil)

// WithTransaction executes the callback with the mock itself, so unit tests
// exercise the business logic without a real database transaction.
func (m *MockStockRepository) WithTransaction(ctx context.Context, fn func(txRepo repository.StockRepositoryInterface) error) error {
	return fn(m)
}

func (m *MockStockRepository) GetInventoryWithProduct(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryRecord), args.Error(1)
}

func (m *MockStockRepository) GetInventoryByProductID(ctx context.Context, productID uuid.UUID) (*models.InventoryRecord, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryRecord), args.Error(1)
}

func (m *MockStockRepository) GetInventoryByCode(ctx context.Context, code string) (*models.InventoryRecord, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryRecord), args.Error(1)
}

func (m *MockStockRepository) CreateInventory(ctx context.Context, record *models.InventoryRecord) error {
	args := m.Called(ctx, record)
	if args.Error(0) == nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockStockRepository) UpdateInventory(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *MockStockRepository) UpdateInventoryStock(ctx context.Context, id uuid.UUID, stock int) error {
	args := m.Called(ctx, id, stock)
	return args.Error(0)
}

func (m *MockStockRepository) DeleteInventory(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStockRepository) ListInventory(ctx context.Context, page, limit int) ([]models.InventoryRecord, int64, error) {
	args := m.Called(ctx, page, limit)
	return args.Get(0).([]models.InventoryRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockRepository) ListStockTrackedInventoryIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockStockRepository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	args := m.Called(ctx, movement)
	if args.Error(0) == nil && movement.ID == uuid.Nil {
		movement.ID = uuid.New()
		movement.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockStockRepository) ListMovements(ctx context.Context, inventoryID uuid.UUID, page, limit int) ([]models.StockMovement, int64, error) {
	args := m.Called(ctx, inventoryID, page, limit)
	return args.Get(0).([]models.StockMovement), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockRepository) GetRule(ctx context.Context, inventoryID uuid.UUID) (*models.StockCriticalRule, error) {
	args := m.Called(ctx, inventoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockCriticalRule), args.Error(1)
}

func (m *MockStockRepository) UpsertRule(ctx context.Context, rule *models.StockCriticalRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockStockRepository) StampRuleNotified(ctx context.Context, inventoryID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, inventoryID, at)
	return args.Error(0)
}

func (m *MockStockRepository) GetActiveAlert(ctx context.Context, inventoryID uuid.UUID) (*models.StockAlert, error) {
	args := m.Called(ctx, inventoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockAlert), args.Error(1)
}

func (m *MockStockRepository) GetAlertByID(ctx context.Context, id uuid.UUID) (*models.StockAlert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockAlert), args.Error(1)
}

func (m *MockStockRepository) CreateAlert(ctx context.Context, alert *models.StockAlert) error {
	args := m.Called(ctx, alert)
	if args.Error(0) == nil && alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockStockRepository) UpdateAlertResend(ctx context.Context, id uuid.UUID, stockAtAlert, threshold int, sentAt time.Time) error {
	args := m.Called(ctx, id, stockAtAlert, threshold, sentAt)
	return args.Error(0)
}

func (m *MockStockRepository) ResolveAlert(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockStockRepository) AckAlert(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockStockRepository) ListAlerts(ctx context.Context, status *models.AlertStatus, page, limit int) ([]models.StockAlert, int64, error) {
	args := m.Called(ctx, status, page, limit)
	return args.Get(0).([]models.StockAlert), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockRepository) CountAlertsByStatus(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockStockRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockStockRepository) ListNotifications(ctx context.Context, unreadOnly bool, page, limit int) ([]models.Notification, int64, error) {
	args := m.Called(ctx, unreadOnly, page, limit)
	return args.Get(0).([]models.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockRepository) MarkNotificationRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockStockRepository) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockStockRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil && p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockStockRepository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}
