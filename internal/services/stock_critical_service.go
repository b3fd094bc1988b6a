package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"inventario-backend/internal/models"
	"inventario-backend/internal/repository"
)

// DefaultCooldownMinutes applies when neither config nor the per-inventory
// rule provide a cooldown.
const DefaultCooldownMinutes = 360

// NotificationTypeStockCritical tags notification rows written by the
// evaluator for the polling UI.
const NotificationTypeStockCritical = "stock_critical"

// effectiveRule is the per-inventory policy after merging the optional
// StockCriticalRule row with the record's own threshold and the configured
// default cooldown. Computed once per evaluation.
type effectiveRule struct {
	enabled   bool
	threshold int
	cooldown  time.Duration
}

// StockCriticalService decides whether an inventory mutation opens, resends
// or resolves a critical-stock alert. Evaluate always runs inside the
// caller's transaction: the repository handed to it is already bound to one,
// and the service never opens its own.
type StockCriticalService struct {
	defaultCooldown time.Duration
	channel         string
	now             func() time.Time
}

// NewStockCriticalService builds an evaluator with an explicit default
// cooldown so tests can inject arbitrary values.
func NewStockCriticalService(defaultCooldownMinutes int, channel string) *StockCriticalService {
	if defaultCooldownMinutes <= 0 {
		defaultCooldownMinutes = DefaultCooldownMinutes
	}
	if channel == "" {
		channel = "app"
	}
	return &StockCriticalService{
		defaultCooldown: time.Duration(defaultCooldownMinutes) * time.Minute,
		channel:         channel,
		now:             time.Now,
	}
}

// Evaluate inspects the inventory's stock against its effective threshold
// and applies exactly one transition: create, resend, resolve or noop.
// Business preconditions never produce an error, only a reasoned noop;
// storage failures propagate and abort the surrounding transaction.
func (s *StockCriticalService) Evaluate(ctx context.Context, repo repository.StockRepositoryInterface, inventoryID uuid.UUID) (*models.TransitionResult, error) {
	inv, err := repo.GetInventoryWithProduct(ctx, inventoryID)
	if errors.Is(err, repository.ErrNotFound) {
		// The record may have been deleted concurrently within the same
		// logical operation (e.g. an import row flipping a product to flete).
		return &models.TransitionResult{Action: models.ActionNoop, Reason: models.ReasonInventarioNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	if inv.Product == nil || !inv.Product.Category.IsStockTracked() {
		return &models.TransitionResult{Action: models.ActionNoop, Reason: models.ReasonProductoEsFlete}, nil
	}

	rule, err := repo.GetRule(ctx, inventoryID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	eff := s.resolveEffectiveRule(inv, rule)
	if !eff.enabled {
		return &models.TransitionResult{Action: models.ActionNoop, Reason: models.ReasonRuleDisabled}, nil
	}

	// Inclusive boundary: stock equal to the threshold is critical.
	isCritical := inv.Stock <= eff.threshold

	alert, err := repo.GetActiveAlert(ctx, inventoryID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := s.now()

	switch {
	case isCritical && alert == nil:
		return s.openAlert(ctx, repo, inv, rule, eff, now)

	case isCritical && alert != nil:
		if !s.cooldownElapsed(rule, alert, eff.cooldown, now) {
			return &models.TransitionResult{Action: models.ActionNoop, AlertID: &alert.ID, Reason: models.ReasonCooldown}, nil
		}
		return s.resendAlert(ctx, repo, inv, rule, alert, eff, now)

	case !isCritical && alert != nil:
		if err := repo.ResolveAlert(ctx, alert.ID, now); err != nil {
			return nil, err
		}
		return &models.TransitionResult{Action: models.ActionResolved, AlertID: &alert.ID}, nil

	default:
		return &models.TransitionResult{Action: models.ActionNoop}, nil
	}
}

// resolveEffectiveRule merges the optional rule row with record defaults
// once, so the transition logic never touches nullable fields.
func (s *StockCriticalService) resolveEffectiveRule(inv *models.InventoryRecord, rule *models.StockCriticalRule) effectiveRule {
	eff := effectiveRule{
		enabled:   true,
		threshold: inv.MinimumThreshold,
		cooldown:  s.defaultCooldown,
	}
	if rule == nil {
		return eff
	}

	eff.enabled = rule.Enabled
	if rule.ThresholdOverride != nil {
		eff.threshold = *rule.ThresholdOverride
	}
	if rule.CooldownMinutes != nil {
		eff.cooldown = time.Duration(*rule.CooldownMinutes) * time.Minute
	}
	return eff
}

// cooldownElapsed prefers the rule stamp, then the alert's own send
// timestamps. No prior timestamp at all means trivially elapsed.
func (s *StockCriticalService) cooldownElapsed(rule *models.StockCriticalRule, alert *models.StockAlert, cooldown time.Duration, now time.Time) bool {
	var lastNotified time.Time
	switch {
	case rule != nil && rule.LastNotifiedAt != nil:
		lastNotified = *rule.LastNotifiedAt
	case !alert.LastSentAt.IsZero():
		lastNotified = alert.LastSentAt
	case !alert.OpenedAt.IsZero():
		lastNotified = alert.OpenedAt
	default:
		return true
	}
	return now.Sub(lastNotified) >= cooldown
}

func (s *StockCriticalService) openAlert(ctx context.Context, repo repository.StockRepositoryInterface, inv *models.InventoryRecord, rule *models.StockCriticalRule, eff effectiveRule, now time.Time) (*models.TransitionResult, error) {
	alert := &models.StockAlert{
		InventoryID:  inv.ID,
		Threshold:    eff.threshold,
		StockAtAlert: inv.Stock,
		Status:       models.AlertStatusOpen,
		IsActive:     true,
		OpenedAt:     now,
		LastSentAt:   now,
		Channel:      s.channel,
		Meta:         productMeta(inv),
	}
	if err := repo.CreateAlert(ctx, alert); err != nil {
		return nil, err
	}

	if err := repo.CreateNotification(ctx, s.buildNotification(inv, alert)); err != nil {
		return nil, err
	}

	if rule != nil {
		if err := repo.StampRuleNotified(ctx, inv.ID, now); err != nil {
			return nil, err
		}
	}

	return &models.TransitionResult{Action: models.ActionCreated, AlertID: &alert.ID}, nil
}

func (s *StockCriticalService) resendAlert(ctx context.Context, repo repository.StockRepositoryInterface, inv *models.InventoryRecord, rule *models.StockCriticalRule, alert *models.StockAlert, eff effectiveRule, now time.Time) (*models.TransitionResult, error) {
	if err := repo.UpdateAlertResend(ctx, alert.ID, inv.Stock, eff.threshold, now); err != nil {
		return nil, err
	}

	alert.StockAtAlert = inv.Stock
	alert.Threshold = eff.threshold
	if err := repo.CreateNotification(ctx, s.buildNotification(inv, alert)); err != nil {
		return nil, err
	}

	if rule != nil {
		if err := repo.StampRuleNotified(ctx, inv.ID, now); err != nil {
			return nil, err
		}
	}

	return &models.TransitionResult{Action: models.ActionResent, AlertID: &alert.ID}, nil
}

func (s *StockCriticalService) buildNotification(inv *models.InventoryRecord, alert *models.StockAlert) *models.Notification {
	name := inv.Code
	sku := ""
	if inv.Product != nil {
		name = inv.Product.Name
		sku = inv.Product.SKU
	}

	meta, _ := json.Marshal(map[string]interface{}{
		"inventarioId": inv.ID,
		"alertId":      alert.ID,
		"sku":          sku,
	})

	return &models.Notification{
		Type:    NotificationTypeStockCritical,
		Title:   fmt.Sprintf("Stock crítico: %s", name),
		Message: fmt.Sprintf("%s tiene %d unidades (mínimo %d)", name, alert.StockAtAlert, alert.Threshold),
		Meta:    datatypes.JSON(meta),
	}
}

// productMeta snapshots product identity onto the alert so the UI can render
// it even if the product is later renamed or deleted.
func productMeta(inv *models.InventoryRecord) datatypes.JSON {
	m := map[string]interface{}{"productId": inv.ProductID}
	if inv.Product != nil {
		m["name"] = inv.Product.Name
		m["sku"] = inv.Product.SKU
	}
	raw, _ := json.Marshal(m)
	return datatypes.JSON(raw)
}
