package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/catalog"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const unknownProductName = "N/A"

type Config struct {
	LowStockThreshold int64
	// InvalidateTimeout bounds the post-commit cache sweep.
	InvalidateTimeout time.Duration
}

type inventoryUseCase struct {
	repo        inventory.Repository
	catalog     catalog.Gateway
	invalidator inventory.SummaryInvalidator
	cfg         Config
	logger      logger.ZapLogger

	tracer   trace.Tracer
	recorded metric.Int64Counter
	now      func() time.Time
}

func NewInventoryUseCase(repo inventory.Repository, gw catalog.Gateway, inv inventory.SummaryInvalidator, cfg Config, log logger.ZapLogger) inventory.UseCase {
	if cfg.InvalidateTimeout <= 0 {
		cfg.InvalidateTimeout = 2 * time.Second
	}
	recorded, err := otel.Meter("inventory.ledger").Int64Counter("inventory.movements.recorded",
		metric.WithDescription("Stock movements committed to the ledger"))
	if err != nil {
		log.Warn("failed to create movements counter", zap.Error(err))
	}
	return &inventoryUseCase{
		repo:        repo,
		catalog:     gw,
		invalidator: inv,
		cfg:         cfg,
		logger:      log,
		tracer:      otel.Tracer("inventory.ledger"),
		recorded:    recorded,
		now:         time.Now,
	}
}

func (uc *inventoryUseCase) GetProductInventory(ctx context.Context, productID string) (*model.Inventory, error) {
	if productID == "" {
		return nil, apperror.Validation("productId is required")
	}
	inv, err := uc.repo.GetByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperror.NotFound("inventory record not found for productId: %s", productID)
	}
	return inv, nil
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, page, pageSize int) ([]model.Inventory, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return uc.repo.FindAll(ctx, &dto.InventoryFilters{
		LowStock: true,
		Page:     page,
		PageSize: pageSize,
	})
}

func validateMovement(input *dto.RecordMovementInput) error {
	if input.ProductID == "" {
		return apperror.Validation("productId is required")
	}
	if input.Type != model.MovementTypeIn && input.Type != model.MovementTypeOut {
		return apperror.Validation("type must be IN or OUT, got %q", input.Type)
	}
	if input.Quantity <= 0 {
		return apperror.Validation("quantity must be positive, got %d", input.Quantity)
	}
	if input.ActivatedBy == "" {
		return apperror.Validation("activatedBy is required")
	}
	return nil
}

func (uc *inventoryUseCase) RecordMovement(ctx context.Context, input *dto.RecordMovementInput) (*model.StockMovement, error) {
	if err := validateMovement(input); err != nil {
		return nil, err
	}

	ctx, span := uc.tracer.Start(ctx, "inventory.RecordMovement", trace.WithAttributes(
		attribute.String("product.id", input.ProductID),
		attribute.String("movement.type", input.Type),
		attribute.Int64("movement.quantity", input.Quantity),
	))
	defer span.End()

	var movement *model.StockMovement
	err := uc.repo.WithinTx(ctx, func(tx inventory.TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperror.NotFound("inventory record not found for productId: %s", input.ProductID)
		}

		now := uc.now()
		newQty := inv.QuantityAvailable
		if input.Type == model.MovementTypeIn {
			newQty += input.Quantity
			inv.LastRestocked = &now
		} else {
			newQty -= input.Quantity
		}
		if newQty < 0 {
			return apperror.InsufficientStock("not enough stock for productId: %s (available %d, requested %d)",
				input.ProductID, inv.QuantityAvailable, input.Quantity)
		}

		inv.QuantityAvailable = newQty
		inv.UpdatedAt = now
		if err := tx.Update(ctx, inv); err != nil {
			return err
		}

		movementDate := now
		if input.MovementDate != nil {
			movementDate = *input.MovementDate
		}
		movement = &model.StockMovement{
			ID:           uuid.New().String(),
			ProductID:    input.ProductID,
			VariantID:    input.VariantID,
			Type:         input.Type,
			Quantity:     input.Quantity,
			Reason:       input.Reason,
			MovementDate: movementDate,
			ActivatedBy:  input.ActivatedBy,
			CreatedAt:    now,
		}
		return tx.InsertMovement(ctx, movement)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperror.Message(err))
		return nil, err
	}

	if uc.recorded != nil {
		uc.recorded.Add(ctx, 1, metric.WithAttributes(attribute.String("type", input.Type)))
	}
	uc.logger.Info("stock movement recorded",
		zap.String("movement_id", movement.ID),
		zap.String("product_id", movement.ProductID),
		zap.String("type", movement.Type),
		zap.Int64("quantity", movement.Quantity),
		zap.String("activated_by", movement.ActivatedBy),
	)
	uc.invalidateSummaries(ctx, "movement")
	return movement, nil
}

// UpsertFromCatalog creates the record on first sight of a product. An existing quantity is
// only overwritten when the event explicitly carries an opening quantity.
func (uc *inventoryUseCase) UpsertFromCatalog(ctx context.Context, input *dto.CatalogProductInput) (*model.Inventory, error) {
	if input.ProductID == "" {
		return nil, apperror.Validation("productId is required")
	}
	if input.OpeningQty != nil && *input.OpeningQty < 0 {
		return nil, apperror.Validation("openingQty must not be negative, got %d", *input.OpeningQty)
	}

	var result *model.Inventory
	err := uc.repo.WithinTx(ctx, func(tx inventory.TxRepository) error {
		now := uc.now()
		inv, err := tx.GetForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}

		if inv == nil {
			var opening int64
			if input.OpeningQty != nil {
				opening = *input.OpeningQty
			}
			inv = &model.Inventory{
				ProductID:         input.ProductID,
				QuantityAvailable: opening,
				LowStockThreshold: uc.cfg.LowStockThreshold,
				ProductCode:       input.ProductCode,
				ProductName:       input.ProductName,
				BaselineQuantity:  opening,
				BaselineAt:        now,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if opening > 0 {
				inv.LastRestocked = &now
			}
			inserted, err := tx.Insert(ctx, inv)
			if err != nil {
				return err
			}
			if inserted {
				result = inv
				return nil
			}
			// Lost the insert race; fall through and apply the event to the winner's row.
			if inv, err = tx.GetForUpdate(ctx, input.ProductID); err != nil {
				return err
			}
			if inv == nil {
				return fmt.Errorf("inventory for %s vanished after insert conflict", input.ProductID)
			}
		}

		applyCatalogFields(inv, input, now)
		if err := tx.Update(ctx, inv); err != nil {
			return err
		}
		if input.OpeningQty != nil {
			if err := tx.ResetBaseline(ctx, inv); err != nil {
				return err
			}
		}
		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("inventory synced from catalog",
		zap.String("product_id", result.ProductID),
		zap.Int64("quantity_available", result.QuantityAvailable),
	)
	uc.invalidateSummaries(ctx, "catalog upsert")
	return result, nil
}

func applyCatalogFields(inv *model.Inventory, input *dto.CatalogProductInput, now time.Time) {
	if input.OpeningQty != nil {
		inv.QuantityAvailable = *input.OpeningQty
		inv.BaselineQuantity = *input.OpeningQty
		inv.BaselineAt = now
	}
	if input.ProductCode != nil {
		inv.ProductCode = input.ProductCode
	}
	if input.ProductName != nil {
		inv.ProductName = input.ProductName
	}
	inv.UpdatedAt = now
}

func (uc *inventoryUseCase) RemoveFromCatalog(ctx context.Context, productID string) error {
	if productID == "" {
		return apperror.Validation("productId is required")
	}
	deleted, err := uc.repo.DeleteByProduct(ctx, productID)
	if err != nil {
		return err
	}
	if !deleted {
		uc.logger.Info("no inventory to remove", zap.String("product_id", productID))
	} else {
		uc.logger.Info("inventory removed", zap.String("product_id", productID))
	}
	uc.invalidateSummaries(ctx, "catalog delete")
	return nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]dto.MovementView, int, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 10
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return nil, 0, apperror.Validation("endDate must not be before startDate")
	}

	movements, total, err := uc.repo.ListMovements(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	seen := make(map[string]struct{}, len(movements))
	ids := make([]string, 0, len(movements))
	for _, m := range movements {
		if _, ok := seen[m.ProductID]; ok {
			continue
		}
		seen[m.ProductID] = struct{}{}
		ids = append(ids, m.ProductID)
	}

	names, err := uc.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	views := make([]dto.MovementView, 0, len(movements))
	for _, m := range movements {
		name, ok := names[m.ProductID]
		if !ok || name == "" {
			name = unknownProductName
		}
		views = append(views, dto.MovementView{StockMovement: m, ProductName: name})
	}
	return views, total, nil
}

// Reconcile compares each projection against its baseline replayed through the ledger.
// It reports discrepancies and never rewrites data.
func (uc *inventoryUseCase) Reconcile(ctx context.Context) (*dto.ReconcileReport, error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.Reconcile")
	defer span.End()

	balances, err := uc.repo.LedgerBalances(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	report := &dto.ReconcileReport{Checked: len(balances), Discrepancies: []dto.Discrepancy{}}
	for _, b := range balances {
		if expected := b.Expected(); expected != b.QuantityAvailable {
			report.Discrepancies = append(report.Discrepancies, dto.Discrepancy{
				ProductID: b.ProductID,
				Projected: b.QuantityAvailable,
				Expected:  expected,
			})
			uc.logger.Warn("ledger discrepancy",
				zap.String("product_id", b.ProductID),
				zap.Int64("projected", b.QuantityAvailable),
				zap.Int64("expected", expected),
			)
		}
	}
	span.SetAttributes(
		attribute.Int("reconcile.checked", report.Checked),
		attribute.Int("reconcile.discrepancies", len(report.Discrepancies)),
	)
	return report, nil
}

// invalidateSummaries runs after commit. Failures are logged and never returned: the committed
// ledger is authoritative and stale entries expire with the TTL.
func (uc *inventoryUseCase) invalidateSummaries(ctx context.Context, cause string) {
	if uc.invalidator == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.InvalidateTimeout)
	defer cancel()
	if err := uc.invalidator.InvalidateAll(ctx); err != nil {
		uc.logger.Warn("summary cache invalidation failed",
			zap.String("cause", cause),
			zap.Error(err),
		)
	}
}
