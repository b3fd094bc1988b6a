package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"inventario-backend/internal/models"
	"inventario-backend/internal/repository"
)

func newImportService(repo repository.StockRepositoryInterface, at time.Time) *ImportService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewImportService(repo, newTestEvaluator(at), logger)
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		raw     string
		want    models.ProductCategory
		wantErr bool
	}{
		{"producto", models.CategoryProducto, false},
		{"PRODUCTO", models.CategoryProducto, false},
		{"  Flete ", models.CategoryFlete, false},
		{"prod", models.CategoryProducto, false},
		{"productos varios", models.CategoryProducto, false},
		{"flete maritimo", models.CategoryFlete, false},
		{"envío", models.CategoryFlete, false},
		{"", models.CategoryProducto, false},
		{"servicio", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeCategory(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImportBadRowDoesNotSinkOthers(t *testing.T) {
	// Data rows land on spreadsheet rows 2-4; the middle one has an
	// unrecognizable tipo and must fail alone.
	csvData := strings.Join([]string{
		"sku,codigo,nombre,tipo,precio,stock,minimo,fotoUrl",
		"FL-001,,Flete Local,flete,1500,,,",
		"XX-001,,Misterio,servicio,100,,,",
		"FL-002,,Flete Nacional,fletes,4500,,,",
	}, "\n")

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetProductBySKU", mock.Anything, "FL-001").Return(nil, repository.ErrNotFound)
	mockRepo.On("GetProductBySKU", mock.Anything, "FL-002").Return(nil, repository.ErrNotFound)
	mockRepo.On("CreateProduct", mock.Anything, mock.AnythingOfType("*models.Product")).Return(nil)
	mockRepo.On("GetInventoryByProductID", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil, repository.ErrNotFound)

	svc := newImportService(mockRepo, time.Now())
	result, err := svc.ImportFile(context.Background(), strings.NewReader(csvData), "catalogo.csv")

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, colCategory, result.Errors[0].Column)
	assert.Equal(t, 2, result.ProductsCreated)
	// Unknown row never reaches storage.
	mockRepo.AssertNotCalled(t, "GetProductBySKU", mock.Anything, "XX-001")
}

func TestImportRolledBackRowDoesNotCountWork(t *testing.T) {
	// The product insert succeeds but the inventory insert fails, so the
	// row's transaction rolls everything back. The report must show the
	// failure without claiming a created product.
	csvData := strings.Join([]string{
		"sku,codigo,nombre,tipo,precio,stock,minimo,fotoUrl",
		"CEM-50,ALM-010,Cemento Gris 50kg,producto,185.50,2,5,",
	}, "\n")

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetProductBySKU", mock.Anything, "CEM-50").Return(nil, repository.ErrNotFound)
	mockRepo.On("CreateProduct", mock.Anything, mock.AnythingOfType("*models.Product")).Return(nil)
	mockRepo.On("GetInventoryByProductID", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil, repository.ErrNotFound)
	mockRepo.On("CreateInventory", mock.Anything, mock.AnythingOfType("*models.InventoryRecord")).Return(assert.AnError)

	svc := newImportService(mockRepo, time.Now())
	result, err := svc.ImportFile(context.Background(), strings.NewReader(csvData), "catalogo.csv")

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 0, result.ProductsCreated)
	assert.Equal(t, 0, result.InventoriesCreated)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Row)
}

func TestImportCreatesInventoryAndEvaluates(t *testing.T) {
	now := time.Now()
	csvData := strings.Join([]string{
		"sku,codigo,nombre,tipo,precio,stock,minimo,fotoUrl",
		"CEM-50,ALM-010,Cemento Gris 50kg,producto,185.50,2,5,https://cdn.example.com/cem.jpg",
	}, "\n")

	critical := trackedInventory(2, 5)

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetProductBySKU", mock.Anything, "CEM-50").Return(nil, repository.ErrNotFound)
	mockRepo.On("CreateProduct", mock.Anything, mock.AnythingOfType("*models.Product")).Return(nil)
	mockRepo.On("GetInventoryByProductID", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil, repository.ErrNotFound)
	mockRepo.On("CreateInventory", mock.Anything, mock.AnythingOfType("*models.InventoryRecord")).Return(nil)
	mockRepo.On("GetInventoryWithProduct", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(critical, nil)
	mockRepo.On("GetRule", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil, repository.ErrNotFound)
	mockRepo.On("GetActiveAlert", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil, repository.ErrNotFound)
	mockRepo.On("CreateAlert", mock.Anything, mock.AnythingOfType("*models.StockAlert")).Return(nil)
	mockRepo.On("CreateNotification", mock.Anything, mock.AnythingOfType("*models.Notification")).Return(nil)

	svc := newImportService(mockRepo, now)
	result, err := svc.ImportFile(context.Background(), strings.NewReader(csvData), "catalogo.csv")

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.ProductsCreated)
	assert.Equal(t, 1, result.InventoriesCreated)
	assert.Len(t, result.Alerts, 1)
	assert.Equal(t, models.ActionCreated, result.Alerts[0].Action)

	mockRepo.AssertCalled(t, "CreateInventory", mock.Anything, mock.MatchedBy(func(r *models.InventoryRecord) bool {
		return r.Code == "ALM-010" && r.Stock == 2 && r.MinimumThreshold == 5
	}))
	mockRepo.AssertCalled(t, "CreateProduct", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
		return p.SKU == "CEM-50" && p.Price == 185.50 && p.Category == models.CategoryProducto && p.PhotoURL != nil
	}))
}

func TestImportFleteRowDropsExistingInventory(t *testing.T) {
	csvData := strings.Join([]string{
		"sku,codigo,nombre,tipo,precio,stock,minimo,fotoUrl",
		"TRA-01,,Traslado Urbano,flete,900,,,",
	}, "\n")

	product := &models.Product{ID: uuid.New(), SKU: "TRA-01", Name: "Traslado", Category: models.CategoryProducto}
	inventory := &models.InventoryRecord{ID: uuid.New(), ProductID: product.ID, Code: "ALM-099", Stock: 4}

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetProductBySKU", mock.Anything, "TRA-01").Return(product, nil)
	mockRepo.On("UpdateProduct", mock.Anything, product.ID, mock.Anything).Return(nil)
	mockRepo.On("GetInventoryByProductID", mock.Anything, product.ID).Return(inventory, nil)
	mockRepo.On("DeleteInventory", mock.Anything, inventory.ID).Return(nil)

	svc := newImportService(mockRepo, time.Now())
	result, err := svc.ImportFile(context.Background(), strings.NewReader(csvData), "catalogo.csv")

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.ProductsUpdated)
	mockRepo.AssertExpectations(t)
	// Freight rows never run the evaluator.
	mockRepo.AssertNotCalled(t, "GetInventoryWithProduct", mock.Anything, mock.Anything)
}

func TestImportRejectsUnknownExtension(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := newImportService(mockRepo, time.Now())

	_, err := svc.ImportFile(context.Background(), strings.NewReader("x"), "catalogo.pdf")
	assert.Error(t, err)
}

func TestImportRequiresCodeForStockTrackedRows(t *testing.T) {
	csvData := strings.Join([]string{
		"sku,codigo,nombre,tipo,precio,stock,minimo,fotoUrl",
		"CEM-50,,Cemento Gris 50kg,producto,185.50,2,5,",
	}, "\n")

	mockRepo := new(MockStockRepository)
	svc := newImportService(mockRepo, time.Now())
	result, err := svc.ImportFile(context.Background(), strings.NewReader(csvData), "catalogo.csv")

	assert.NoError(t, err)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, colCode, result.Errors[0].Column)
}
