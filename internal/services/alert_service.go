package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"inventario-backend/internal/models"
	"inventario-backend/internal/repository"
)

var ErrAlertNotFound = errors.New("alert not found")

// AlertService exposes the alert ledger to the polling UI: listing,
// idempotent acknowledge/resolve, status counts and an on-demand sweep.
type AlertService struct {
	repo     repository.StockRepositoryInterface
	critical *StockCriticalService
	logger   *logrus.Entry
}

func NewAlertService(repo repository.StockRepositoryInterface, critical *StockCriticalService, logger *logrus.Logger) *AlertService {
	return &AlertService{
		repo:     repo,
		critical: critical,
		logger:   logger.WithField("component", "alerts"),
	}
}

// List returns alerts filtered by status; nil status means all.
func (s *AlertService) List(ctx context.Context, status *models.AlertStatus, page, limit int) ([]models.StockAlert, int64, error) {
	return s.repo.ListAlerts(ctx, status, page, limit)
}

// CountByStatus returns alert totals per lifecycle state.
func (s *AlertService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountAlertsByStatus(ctx)
}

// Acknowledge flips an OPEN alert to ACK. Acking an alert that already left
// OPEN returns it unchanged and performs no write.
func (s *AlertService) Acknowledge(ctx context.Context, id uuid.UUID) (*models.StockAlert, error) {
	alert, err := s.repo.GetAlertByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, err
	}

	if alert.Status != models.AlertStatusOpen {
		return alert, nil
	}

	now := time.Now()
	if err := s.repo.AckAlert(ctx, id, now); err != nil {
		return nil, err
	}
	alert.Status = models.AlertStatusAck
	alert.UpdatedAt = now
	return alert, nil
}

// Resolve manually closes an alert episode. Resolving an already resolved
// alert returns it unchanged and performs no write.
func (s *AlertService) Resolve(ctx context.Context, id uuid.UUID) (*models.StockAlert, error) {
	alert, err := s.repo.GetAlertByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, err
	}

	if alert.Status == models.AlertStatusResolved {
		return alert, nil
	}

	now := time.Now()
	if err := s.repo.ResolveAlert(ctx, id, now); err != nil {
		return nil, err
	}
	alert.Status = models.AlertStatusResolved
	alert.IsActive = false
	alert.ResolvedAt = &now
	alert.UpdatedAt = now
	return alert, nil
}

// SweepResult summarizes one on-demand re-evaluation pass.
type SweepResult struct {
	Evaluated int                       `json:"evaluated"`
	Created   int                       `json:"created"`
	Resent    int                       `json:"resent"`
	Resolved  int                       `json:"resolved"`
	Results   []models.TransitionResult `json:"results,omitempty"`
}

// Sweep re-evaluates every stock-tracked inventory, one transaction each.
// Alerting is otherwise push-on-write: without this, an alert whose stock is
// never touched again would stay stale forever.
func (s *AlertService) Sweep(ctx context.Context) (*SweepResult, error) {
	ids, err := s.repo.ListStockTrackedInventoryIDs(ctx)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for _, id := range ids {
		var transition *models.TransitionResult
		err := s.repo.WithTransaction(ctx, func(tx repository.StockRepositoryInterface) error {
			var evalErr error
			transition, evalErr = s.critical.Evaluate(ctx, tx, id)
			return evalErr
		})
		if err != nil {
			s.logger.WithField("inventarioId", id).WithError(err).Error("Sweep evaluation failed")
			continue
		}

		result.Evaluated++
		switch transition.Action {
		case models.ActionCreated:
			result.Created++
		case models.ActionResent:
			result.Resent++
		case models.ActionResolved:
			result.Resolved++
		}
		if transition.Action != models.ActionNoop {
			result.Results = append(result.Results, *transition)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"evaluated": result.Evaluated,
		"created":   result.Created,
		"resent":    result.Resent,
		"resolved":  result.Resolved,
	}).Info("Alert sweep completed")

	return result, nil
}

// Notifications lists the UI notification feed.
func (s *AlertService) Notifications(ctx context.Context, unreadOnly bool, page, limit int) ([]models.Notification, int64, error) {
	return s.repo.ListNotifications(ctx, unreadOnly, page, limit)
}

// MarkNotificationRead stamps read_at; already-read rows are left as is.
func (s *AlertService) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkNotificationRead(ctx, id, time.Now())
}
