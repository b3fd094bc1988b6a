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

func newAlertService(repo repository.StockRepositoryInterface, at time.Time) *AlertService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewAlertService(repo, newTestEvaluator(at), logger)
}

func TestAcknowledgeOpenAlert(t *testing.T) {
	alertID := uuid.New()
	alert := &models.StockAlert{ID: alertID, Status: models.AlertStatusOpen, IsActive: true}

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetAlertByID", mock.Anything, alertID).Return(alert, nil)
	mockRepo.On("AckAlert", mock.Anything, alertID, mock.AnythingOfType("time.Time")).Return(nil)

	svc := newAlertService(mockRepo, time.Now())
	got, err := svc.Acknowledge(context.Background(), alertID)

	assert.NoError(t, err)
	assert.Equal(t, models.AlertStatusAck, got.Status)
	mockRepo.AssertExpectations(t)
}

func TestAcknowledgeIsIdempotent(t *testing.T) {
	alertID := uuid.New()
	alert := &models.StockAlert{ID: alertID, Status: models.AlertStatusAck, IsActive: true}

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetAlertByID", mock.Anything, alertID).Return(alert, nil)

	svc := newAlertService(mockRepo, time.Now())
	got, err := svc.Acknowledge(context.Background(), alertID)

	assert.NoError(t, err)
	assert.Equal(t, models.AlertStatusAck, got.Status)
	mockRepo.AssertNotCalled(t, "AckAlert", mock.Anything, mock.Anything, mock.Anything)
}

func TestAcknowledgeResolvedAlertIsNoop(t *testing.T) {
	alertID := uuid.New()
	alert := &models.StockAlert{ID: alertID, Status: models.AlertStatusResolved, IsActive: false}

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetAlertByID", mock.Anything, alertID).Return(alert, nil)

	svc := newAlertService(mockRepo, time.Now())
	got, err := svc.Acknowledge(context.Background(), alertID)

	assert.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, got.Status)
	mockRepo.AssertNotCalled(t, "AckAlert", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveAlert(t *testing.T) {
	alertID := uuid.New()
	alert := &models.StockAlert{ID: alertID, Status: models.AlertStatusOpen, IsActive: true}

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetAlertByID", mock.Anything, alertID).Return(alert, nil)
	mockRepo.On("ResolveAlert", mock.Anything, alertID, mock.AnythingOfType("time.Time")).Return(nil)

	svc := newAlertService(mockRepo, time.Now())
	got, err := svc.Resolve(context.Background(), alertID)

	assert.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, got.Status)
	assert.False(t, got.IsActive)
	assert.NotNil(t, got.ResolvedAt)
	mockRepo.AssertExpectations(t)
}

func TestResolveIsIdempotent(t *testing.T) {
	alertID := uuid.New()
	resolvedAt := time.Now().Add(-time.Hour)
	alert := &models.StockAlert{ID: alertID, Status: models.AlertStatusResolved, IsActive: false, ResolvedAt: &resolvedAt}

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetAlertByID", mock.Anything, alertID).Return(alert, nil)

	svc := newAlertService(mockRepo, time.Now())
	got, err := svc.Resolve(context.Background(), alertID)

	assert.NoError(t, err)
	assert.Equal(t, resolvedAt, *got.ResolvedAt)
	mockRepo.AssertNotCalled(t, "ResolveAlert", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveUnknownAlert(t *testing.T) {
	alertID := uuid.New()

	mockRepo := new(MockStockRepository)
	mockRepo.On("GetAlertByID", mock.Anything, alertID).Return(nil, repository.ErrNotFound)

	svc := newAlertService(mockRepo, time.Now())
	_, err := svc.Resolve(context.Background(), alertID)

	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestMarkNotificationReadUnknownID(t *testing.T) {
	id := uuid.New()

	mockRepo := new(MockStockRepository)
	mockRepo.On("MarkNotificationRead", mock.Anything, id, mock.AnythingOfType("time.Time")).
		Return(repository.ErrNotFound)

	svc := newAlertService(mockRepo, time.Now())
	err := svc.MarkNotificationRead(context.Background(), id)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSweepCountsTransitions(t *testing.T) {
	now := time.Now()

	criticalInv := trackedInventory(1, 5)
	healthyInv := trackedInventory(50, 5)
	ids := []uuid.UUID{criticalInv.ID, healthyInv.ID}

	mockRepo := new(MockStockRepository)
	mockRepo.On("ListStockTrackedInventoryIDs", mock.Anything).Return(ids, nil)

	mockRepo.On("GetInventoryWithProduct", mock.Anything, criticalInv.ID).Return(criticalInv, nil)
	mockRepo.On("GetRule", mock.Anything, criticalInv.ID).Return(nil, repository.ErrNotFound)
	mockRepo.On("GetActiveAlert", mock.Anything, criticalInv.ID).Return(nil, repository.ErrNotFound)
	mockRepo.On("CreateAlert", mock.Anything, mock.AnythingOfType("*models.StockAlert")).Return(nil)
	mockRepo.On("CreateNotification", mock.Anything, mock.AnythingOfType("*models.Notification")).Return(nil)

	mockRepo.On("GetInventoryWithProduct", mock.Anything, healthyInv.ID).Return(healthyInv, nil)
	mockRepo.On("GetRule", mock.Anything, healthyInv.ID).Return(nil, repository.ErrNotFound)
	mockRepo.On("GetActiveAlert", mock.Anything, healthyInv.ID).Return(nil, repository.ErrNotFound)

	svc := newAlertService(mockRepo, now)
	result, err := svc.Sweep(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Evaluated)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Resent)
	assert.Equal(t, 0, result.Resolved)
	assert.Len(t, result.Results, 1)
}
