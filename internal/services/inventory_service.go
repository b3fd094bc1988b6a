package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"inventario-backend/internal/models"
	"inventario-backend/internal/repository"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateCode   = errors.New("inventory code already exists")
	ErrInventoryExists = errors.New("product already has an inventory record")
)

// ProductCatalog is the slice of the catalog repository the inventory
// orchestrator needs.
type ProductCatalog interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// InventoryService orchestrates direct inventory mutations. Create and
// update run the stock-critical evaluator inside the same transaction as
// the write; updates only re-evaluate when stock or the minimum threshold
// actually changed.
type InventoryService struct {
	repo     repository.StockRepositoryInterface
	catalog  ProductCatalog
	critical *StockCriticalService
	logger   *logrus.Entry
}

func NewInventoryService(repo repository.StockRepositoryInterface, catalog ProductCatalog, critical *StockCriticalService, logger *logrus.Logger) *InventoryService {
	return &InventoryService{
		repo:     repo,
		catalog:  catalog,
		critical: critical,
		logger:   logger.WithField("component", "inventory"),
	}
}

// InventoryResult pairs the record with the evaluation triggered by the
// mutation that produced it.
type InventoryResult struct {
	Inventory     *models.InventoryRecord
	StockCritical *models.TransitionResult
}

// Create inserts the record and immediately evaluates it, the one case
// where the evaluator runs without a preceding stock-affecting write.
func (s *InventoryService) Create(ctx context.Context, req models.CreateInventoryRequest) (*InventoryResult, error) {
	product, err := s.catalog.GetProductByID(ctx, req.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if !product.Category.IsStockTracked() {
		return nil, ErrProductoEsFlete
	}

	if _, err := s.repo.GetInventoryByProductID(ctx, req.ProductID); err == nil {
		return nil, ErrInventoryExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.repo.GetInventoryByCode(ctx, req.Code); err == nil {
		return nil, ErrDuplicateCode
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	var result InventoryResult
	err = s.repo.WithTransaction(ctx, func(tx repository.StockRepositoryInterface) error {
		record := &models.InventoryRecord{
			ProductID:        req.ProductID,
			Code:             req.Code,
			Stock:            req.Stock,
			MinimumThreshold: req.MinimumThreshold,
			Location:         req.Location,
		}
		if err := tx.CreateInventory(ctx, record); err != nil {
			return err
		}

		transition, err := s.critical.Evaluate(ctx, tx, record.ID)
		if err != nil {
			return err
		}

		record.Product = product
		result.Inventory = record
		result.StockCritical = transition
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"inventarioId": result.Inventory.ID,
		"codigo":       result.Inventory.Code,
		"transition":   result.StockCritical.Action,
	}).Info("Inventory record created")

	return &result, nil
}

// Update applies the requested field changes. The evaluator only re-runs
// when stock or the minimum threshold changed; touching location alone must
// not cause notification churn.
func (s *InventoryService) Update(ctx context.Context, id uuid.UUID, req models.UpdateInventoryRequest) (*InventoryResult, error) {
	var result InventoryResult
	err := s.repo.WithTransaction(ctx, func(tx repository.StockRepositoryInterface) error {
		inv, err := tx.GetInventoryWithProduct(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInventoryNotFound
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		evaluationNeeded := false

		if req.Code != nil && *req.Code != inv.Code {
			if other, err := tx.GetInventoryByCode(ctx, *req.Code); err == nil && other.ID != id {
				return ErrDuplicateCode
			} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			updates["code"] = *req.Code
			inv.Code = *req.Code
		}
		if req.Location != nil {
			updates["location"] = *req.Location
			inv.Location = req.Location
		}
		if req.Stock != nil && *req.Stock != inv.Stock {
			updates["stock"] = *req.Stock
			inv.Stock = *req.Stock
			evaluationNeeded = true
		}
		if req.MinimumThreshold != nil && *req.MinimumThreshold != inv.MinimumThreshold {
			updates["minimum_threshold"] = *req.MinimumThreshold
			inv.MinimumThreshold = *req.MinimumThreshold
			evaluationNeeded = true
		}

		if len(updates) > 0 {
			if err := tx.UpdateInventory(ctx, id, updates); err != nil {
				return err
			}
		}

		transition := &models.TransitionResult{Action: models.ActionNoop}
		if evaluationNeeded {
			transition, err = s.critical.Evaluate(ctx, tx, id)
			if err != nil {
				return err
			}
		}

		result.Inventory = inv
		result.StockCritical = transition
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Get returns a single record with its product preloaded.
func (s *InventoryService) Get(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error) {
	inv, err := s.repo.GetInventoryWithProduct(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInventoryNotFound
	}
	return inv, err
}

// List returns a paginated inventory listing.
func (s *InventoryService) List(ctx context.Context, page, limit int) ([]models.InventoryRecord, int64, error) {
	return s.repo.ListInventory(ctx, page, limit)
}

// Delete removes the record and cascades its movements, alerts and rule.
func (s *InventoryService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.WithTransaction(ctx, func(tx repository.StockRepositoryInterface) error {
		return tx.DeleteInventory(ctx, id)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInventoryNotFound
	}
	return err
}

// GetRule returns the rule row, or the implicit defaults when absent.
func (s *InventoryService) GetRule(ctx context.Context, inventoryID uuid.UUID) (*models.StockCriticalRule, error) {
	if _, err := s.repo.GetInventoryWithProduct(ctx, inventoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInventoryNotFound
		}
		return nil, err
	}

	rule, err := s.repo.GetRule(ctx, inventoryID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.StockCriticalRule{InventoryID: inventoryID, Enabled: true}, nil
	}
	return rule, err
}

// UpdateRule upserts the per-inventory alerting override. Disabling a rule
// suppresses future alerting but never resolves an already-open alert.
func (s *InventoryService) UpdateRule(ctx context.Context, inventoryID uuid.UUID, req models.UpdateRuleRequest) (*models.StockCriticalRule, error) {
	if _, err := s.repo.GetInventoryWithProduct(ctx, inventoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInventoryNotFound
		}
		return nil, err
	}

	rule := &models.StockCriticalRule{
		InventoryID:       inventoryID,
		Enabled:           true,
		ThresholdOverride: req.ThresholdOverride,
		CooldownMinutes:   req.CooldownMinutes,
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	if err := s.repo.UpsertRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}
