package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"inventario-backend/internal/models"
	"inventario-backend/internal/repository"
)

var (
	ErrInventoryNotFound = errors.New("inventory record not found")
	ErrProductoEsFlete   = errors.New("product category does not track stock")
	ErrStockNegativo     = errors.New("movement would leave negative stock")
	ErrInvalidMovement   = errors.New("invalid movement kind or quantity")
)

// MovementService posts immutable ledger entries and keeps the inventory
// stock and the critical-stock state consistent within one transaction.
type MovementService struct {
	repo     repository.StockRepositoryInterface
	critical *StockCriticalService
	logger   *logrus.Entry
}

func NewMovementService(repo repository.StockRepositoryInterface, critical *StockCriticalService, logger *logrus.Logger) *MovementService {
	return &MovementService{
		repo:     repo,
		critical: critical,
		logger:   logger.WithField("component", "movements"),
	}
}

// PostMovementInput is the validated request for one ledger entry.
type PostMovementInput struct {
	InventoryID uuid.UUID
	Kind        models.MovementKind
	Quantity    int
	Note        *string
}

// MovementResult is returned to the caller so a UI can react to the alert
// transition without a second round trip.
type MovementResult struct {
	Movement      *models.StockMovement
	Inventory     *models.InventoryRecord
	PreviousStock int
	StockCritical *models.TransitionResult
}

// PostMovement appends the movement, updates the stock and evaluates
// criticality atomically. Any domain rejection rolls the whole unit back:
// no movement row, no stock change, no evaluation side effect.
func (s *MovementService) PostMovement(ctx context.Context, input PostMovementInput) (*MovementResult, error) {
	if !input.Kind.Valid() || input.Quantity <= 0 {
		return nil, ErrInvalidMovement
	}

	var result MovementResult
	err := s.repo.WithTransaction(ctx, func(tx repository.StockRepositoryInterface) error {
		inv, err := tx.GetInventoryWithProduct(ctx, input.InventoryID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInventoryNotFound
		}
		if err != nil {
			return err
		}

		if inv.Product == nil || !inv.Product.Category.IsStockTracked() {
			return ErrProductoEsFlete
		}

		previousStock := inv.Stock
		newStock, err := applyMovement(inv.Stock, input.Kind, input.Quantity)
		if err != nil {
			return err
		}

		movement := &models.StockMovement{
			InventoryID: inv.ID,
			Kind:        input.Kind,
			Quantity:    input.Quantity,
			Note:        input.Note,
		}
		if err := tx.CreateMovement(ctx, movement); err != nil {
			return err
		}

		if err := tx.UpdateInventoryStock(ctx, inv.ID, newStock); err != nil {
			return err
		}
		inv.Stock = newStock

		transition, err := s.critical.Evaluate(ctx, tx, inv.ID)
		if err != nil {
			return err
		}

		result.Movement = movement
		result.Inventory = inv
		result.PreviousStock = previousStock
		result.StockCritical = transition
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"inventarioId": input.InventoryID,
		"tipo":         input.Kind,
		"cantidad":     input.Quantity,
		"stock":        result.Inventory.Stock,
		"transition":   result.StockCritical.Action,
	}).Info("Stock movement posted")

	return &result, nil
}

// ListMovements returns the ledger for one inventory, newest first.
func (s *MovementService) ListMovements(ctx context.Context, inventoryID uuid.UUID, page, limit int) ([]models.StockMovement, int64, error) {
	if _, err := s.repo.GetInventoryWithProduct(ctx, inventoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, ErrInventoryNotFound
		}
		return nil, 0, err
	}
	return s.repo.ListMovements(ctx, inventoryID, page, limit)
}

// applyMovement computes the resulting stock. ENTRADA adds, SALIDA
// subtracts, AJUSTE sets the absolute value. Negative results are rejected,
// the only stock invariant enforced synchronously at write time.
func applyMovement(current int, kind models.MovementKind, quantity int) (int, error) {
	var newStock int
	switch kind {
	case models.MovementEntrada:
		newStock = current + quantity
	case models.MovementSalida:
		newStock = current - quantity
	case models.MovementAjuste:
		newStock = quantity
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidMovement, kind)
	}

	if newStock < 0 {
		return 0, ErrStockNegativo
	}
	return newStock, nil
}
