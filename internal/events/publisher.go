// Package events publishes stock lifecycle events to NATS JetStream.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/sirupsen/logrus"
)

// StockEventPublisher emits stock-critical lifecycle events. It is optional:
// callers hold a nil publisher when NATS is not configured and every Publish
// method is nil-safe.
type StockEventPublisher struct {
	publisher *events.Publisher
	store     string
	logger    *logrus.Entry
}

// NewStockEventPublisher connects to NATS and ensures the inventory stream.
// store identifies this deployment in the event envelope.
func NewStockEventPublisher(natsURL, store string, logger *logrus.Logger) (*StockEventPublisher, error) {
	if natsURL == "" {
		return nil, fmt.Errorf("NATS URL is required")
	}

	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "inventario-backend-publisher"

	publisher, err := events.NewPublisher(config, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := publisher.EnsureStream(ctx, events.StreamInventory, []string{"inventory.>"}); err != nil {
		log.WithError(err).Warn("Failed to ensure inventory stream exists")
	}

	return &StockEventPublisher{
		publisher: publisher,
		store:     store,
		logger:    log.WithField("component", "stock-events"),
	}, nil
}

// PublishStockCritical emits an inventory.low_stock event when an alert is
// opened or resent. Called after the owning transaction committed.
func (p *StockEventPublisher) PublishStockCritical(ctx context.Context, productID, productName, sku string, currentStock, threshold int) error {
	if p == nil {
		return nil
	}

	event := events.NewInventoryEvent(events.InventoryLowStock, p.store)
	event.Items = []events.InventoryItem{
		{
			ProductID:    productID,
			Name:         productName,
			SKU:          sku,
			CurrentStock: currentStock,
			ReorderPoint: threshold,
		},
	}
	event.AlertLevel = "warning"
	if currentStock == 0 {
		event.AlertLevel = "critical"
	}
	event.AlertMessage = fmt.Sprintf("Stock crítico: %s (SKU: %s) tiene %d unidades (mínimo %d)", productName, sku, currentStock, threshold)
	event.CalculateSummary()

	if err := p.publisher.PublishInventory(ctx, event); err != nil {
		p.logger.WithFields(logrus.Fields{
			"productId": productID,
			"sku":       sku,
		}).WithError(err).Error("Failed to publish inventory.low_stock event")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"productId":    productID,
		"sku":          sku,
		"currentStock": currentStock,
		"threshold":    threshold,
	}).Info("Published inventory.low_stock event")
	return nil
}

// PublishStockRecovered emits an inventory.adjusted event with an info level
// when an alert resolves because stock climbed back above the threshold.
func (p *StockEventPublisher) PublishStockRecovered(ctx context.Context, productID, productName, sku string, currentStock, threshold int) error {
	if p == nil {
		return nil
	}

	event := events.NewInventoryEvent(events.InventoryAdjusted, p.store)
	event.Items = []events.InventoryItem{
		{
			ProductID:    productID,
			Name:         productName,
			SKU:          sku,
			CurrentStock: currentStock,
			ReorderPoint: threshold,
		},
	}
	event.AlertLevel = "info"
	event.AlertMessage = fmt.Sprintf("Stock recuperado: %s (SKU: %s) tiene %d unidades (mínimo %d)", productName, sku, currentStock, threshold)
	event.CalculateSummary()

	if err := p.publisher.PublishInventory(ctx, event); err != nil {
		p.logger.WithFields(logrus.Fields{
			"productId": productID,
			"sku":       sku,
		}).WithError(err).Error("Failed to publish recovery event")
		return err
	}
	return nil
}

// PublishStockAdjusted emits an inventory.adjusted event for every posted
// movement, carrying the previous and resulting stock.
func (p *StockEventPublisher) PublishStockAdjusted(ctx context.Context, productID, productName, sku string, previousStock, currentStock int, reason string) error {
	if p == nil {
		return nil
	}

	event := events.NewInventoryEvent(events.InventoryAdjusted, p.store)
	event.Items = []events.InventoryItem{
		{
			ProductID:     productID,
			Name:          productName,
			SKU:           sku,
			CurrentStock:  currentStock,
			PreviousStock: previousStock,
		},
	}
	event.AdjustmentReason = reason
	switch {
	case currentStock > previousStock:
		event.AdjustmentType = "add"
	case currentStock < previousStock:
		event.AdjustmentType = "remove"
	default:
		event.AdjustmentType = "set"
	}
	event.AlertLevel = "info"
	event.AlertMessage = fmt.Sprintf("Movimiento de stock: %s (SKU: %s) pasó de %d a %d", productName, sku, previousStock, currentStock)

	if err := p.publisher.PublishInventory(ctx, event); err != nil {
		p.logger.WithFields(logrus.Fields{
			"productId": productID,
			"sku":       sku,
		}).WithError(err).Error("Failed to publish inventory.adjusted event")
		return err
	}
	return nil
}

// IsConnected returns true if connected to NATS
func (p *StockEventPublisher) IsConnected() bool {
	return p != nil && p.publisher.IsConnected()
}

// Close closes the NATS connection
func (p *StockEventPublisher) Close() {
	if p != nil {
		p.publisher.Close()
	}
}
