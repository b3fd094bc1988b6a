package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"inventario-backend/internal/models"
	"inventario-backend/internal/repository"
)

func newMovementService(repo repository.StockRepositoryInterface, at time.Time) *MovementService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewMovementService(repo, newTestEvaluator(at), logger)
}

func TestApplyMovement(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		kind     models.MovementKind
		quantity int
		want     int
		wantErr  error
	}{
		{"entrada adds", 10, models.MovementEntrada, 5, 15, nil},
		{"salida subtracts", 10, models.MovementSalida, 4, 6, nil},
		{"salida to zero", 10, models.MovementSalida, 10, 0, nil},
		{"ajuste sets absolute", 10, models.MovementAjuste, 3, 3, nil},
		{"salida below zero rejected", 10, models.MovementSalida, 11, 0, ErrStockNegativo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyMovement(tt.current, tt.kind, tt.quantity)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostMovementEntradaUpdatesStock(t *testing.T) {
	now := time.Now()
	inv := trackedInventory(10, 5)

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetInventoryWithProduct", mock.Anything, inv.ID).Return(inv, nil)
	mockRepo.On("CreateMovement", mock.Anything, mock.AnythingOfType("*models.StockMovement")).Return(nil)
	mockRepo.On("UpdateInventoryStock", mock.Anything, inv.ID, 15).Return(nil)
	// Evaluator pass inside the same transaction.
	mockRepo.On("GetRule", mock.Anything, inv.ID).Return(nil, repository.ErrNotFound)
	mockRepo.On("GetActiveAlert", mock.Anything, inv.ID).Return(nil, repository.ErrNotFound)

	svc := newMovementService(mockRepo, now)
	result, err := svc.PostMovement(context.Background(), PostMovementInput{
		InventoryID: inv.ID,
		Kind:        models.MovementEntrada,
		Quantity:    5,
	})

	assert.NoError(t, err)
	assert.Equal(t, 15, result.Inventory.Stock)
	assert.Equal(t, 10, result.PreviousStock)
	assert.Equal(t, models.ActionNoop, result.StockCritical.Action)
	mockRepo.AssertExpectations(t)
}

func TestPostMovementAjusteReportsPreviousStock(t *testing.T) {
	// AJUSTE sets an absolute value; the pre-movement stock cannot be
	// reconstructed from the quantity, so the result must carry it.
	now := time.Now()
	inv := trackedInventory(10, 5)

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetInventoryWithProduct", mock.Anything, inv.ID).Return(inv, nil)
	mockRepo.On("CreateMovement", mock.Anything, mock.AnythingOfType("*models.StockMovement")).Return(nil)
	mockRepo.On("UpdateInventoryStock", mock.Anything, inv.ID, 7).Return(nil)
	mockRepo.On("GetRule", mock.Anything, inv.ID).Return(nil, repository.ErrNotFound)
	mockRepo.On("GetActiveAlert", mock.Anything, inv.ID).Return(nil, repository.ErrNotFound)

	svc := newMovementService(mockRepo, now)
	result, err := svc.PostMovement(context.Background(), PostMovementInput{
		InventoryID: inv.ID,
		Kind:        models.MovementAjuste,
		Quantity:    7,
	})

	assert.NoError(t, err)
	assert.Equal(t, 10, result.PreviousStock)
	assert.Equal(t, 7, result.Inventory.Stock)
	mockRepo.AssertExpectations(t)
}

func TestPostMovementSalidaCrossesThresholdCreatesAlert(t *testing.T) {
	now := time.Now()
	inv := trackedInventory(8, 5)

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetInventoryWithProduct", mock.Anything, inv.ID).Return(inv, nil)
	mockRepo.On("CreateMovement", mock.Anything, mock.AnythingOfType("*models.StockMovement")).Return(nil)
	mockRepo.On("UpdateInventoryStock", mock.Anything, inv.ID, 4).Return(nil)
	mockRepo.On("GetRule", mock.Anything, inv.ID).Return(nil, repository.ErrNotFound)
	mockRepo.On("GetActiveAlert", mock.Anything, inv.ID).Return(nil, repository.ErrNotFound)
	mockRepo.On("CreateAlert", mock.Anything, mock.AnythingOfType("*models.StockAlert")).Return(nil)
	mockRepo.On("CreateNotification", mock.Anything, mock.AnythingOfType("*models.Notification")).Return(nil)

	svc := newMovementService(mockRepo, now)
	result, err := svc.PostMovement(context.Background(), PostMovementInput{
		InventoryID: inv.ID,
		Kind:        models.MovementSalida,
		Quantity:    4,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.ActionCreated, result.StockCritical.Action)
	mockRepo.AssertCalled(t, "CreateAlert", mock.Anything, mock.MatchedBy(func(a *models.StockAlert) bool {
		return a.StockAtAlert == 4 && a.Threshold == 5
	}))
}

func TestPostMovementEntradaResolvesOpenAlert(t *testing.T) {
	now := time.Now()
	inv := trackedInventory(2, 5)
	alert := &models.StockAlert{
		ID:          uuid.New(),
		InventoryID: inv.ID,
		Status:      models.AlertStatusOpen,
		IsActive:    true,
		OpenedAt:    now.Add(-time.Hour),
		LastSentAt:  now.Add(-time.Hour),
	}

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetInventoryWithProduct", mock.Anything, inv.ID).Return(inv, nil)
	mockRepo.On("CreateMovement", mock.Anything, mock.AnythingOfType("*models.StockMovement")).Return(nil)
	mockRepo.On("UpdateInventoryStock", mock.Anything, inv.ID, 12).Return(nil)
	mockRepo.On("GetRule", mock.Anything, inv.ID).Return(nil, repository.ErrNotFound)
	mockRepo.On("GetActiveAlert", mock.Anything, inv.ID).Return(alert, nil)
	mockRepo.On("ResolveAlert", mock.Anything, alert.ID, now).Return(nil)

	svc := newMovementService(mockRepo, now)
	result, err := svc.PostMovement(context.Background(), PostMovementInput{
		InventoryID: inv.ID,
		Kind:        models.MovementEntrada,
		Quantity:    10,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.ActionResolved, result.StockCritical.Action)
	mockRepo.AssertExpectations(t)
}

func TestPostMovementNegativeStockRejectedBeforeAnyWrite(t *testing.T) {
	now := time.Now()
	inv := trackedInventory(3, 5)

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetInventoryWithProduct", mock.Anything, inv.ID).Return(inv, nil)

	svc := newMovementService(mockRepo, now)
	_, err := svc.PostMovement(context.Background(), PostMovementInput{
		InventoryID: inv.ID,
		Kind:        models.MovementSalida,
		Quantity:    4,
	})

	assert.ErrorIs(t, err, ErrStockNegativo)
	mockRepo.AssertNotCalled(t, "CreateMovement", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "UpdateInventoryStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestPostMovementFreightProductRejected(t *testing.T) {
	now := time.Now()
	inv := trackedInventory(3, 5)
	inv.Product.Category = models.CategoryFlete

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetInventoryWithProduct", mock.Anything, inv.ID).Return(inv, nil)

	svc := newMovementService(mockRepo, now)
	_, err := svc.PostMovement(context.Background(), PostMovementInput{
		InventoryID: inv.ID,
		Kind:        models.MovementEntrada,
		Quantity:    1,
	})

	assert.ErrorIs(t, err, ErrProductoEsFlete)
	mockRepo.AssertNotCalled(t, "CreateMovement", mock.Anything, mock.Anything)
}

func TestPostMovementUnknownInventory(t *testing.T) {
	id := uuid.New()
	mockRepo := new(MockStockRepository)
	mockRepo.On("GetInventoryWithProduct", mock.Anything, id).Return(nil, repository.ErrNotFound)

	svc := newMovementService(mockRepo, time.Now())
	_, err := svc.PostMovement(context.Background(), PostMovementInput{
		InventoryID: id,
		Kind:        models.MovementEntrada,
		Quantity:    1,
	})

	assert.ErrorIs(t, err, ErrInventoryNotFound)
}

func TestPostMovementRejectsInvalidInput(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := newMovementService(mockRepo, time.Now())

	_, err := svc.PostMovement(context.Background(), PostMovementInput{
		InventoryID: uuid.New(),
		Kind:        models.MovementKind("TRASLADO"),
		Quantity:    1,
	})
	assert.ErrorIs(t, err, ErrInvalidMovement)

	_, err = svc.PostMovement(context.Background(), PostMovementInput{
		InventoryID: uuid.New(),
		Kind:        models.MovementEntrada,
		Quantity:    0,
	})
	assert.ErrorIs(t, err, ErrInvalidMovement)
}
