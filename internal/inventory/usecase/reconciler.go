package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const reconcileLockKey = "lock:inventory:reconcile"

// Locker is satisfied by *cache.RedisClient.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

// Reconciler runs the ledger reconciliation periodically. The lock keeps replicas from running
// it concurrently.
type Reconciler struct {
	uc       inventory.UseCase
	locker   Locker
	interval time.Duration
	logger   logger.ZapLogger
}

func NewReconciler(uc inventory.UseCase, locker Locker, interval time.Duration, log logger.ZapLogger) *Reconciler {
	return &Reconciler{uc: uc, locker: locker, interval: interval, logger: log}
}

// Run blocks until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconcile loop started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconcile loop stopped")
			return
		case <-ticker.C:
			if _, _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("reconcile failed", zap.Error(err))
			}
		}
	}
}

// RunOnce reports ran=false when another replica holds the lock.
func (r *Reconciler) RunOnce(ctx context.Context) (report *dto.ReconcileReport, ran bool, err error) {
	token := uuid.New().String()
	ttl := r.interval
	if ttl < time.Minute {
		ttl = time.Minute
	}

	ok, err := r.locker.AcquireLock(ctx, reconcileLockKey, token, ttl)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		r.logger.Debug("reconcile skipped, lock held elsewhere")
		return nil, false, nil
	}
	defer func() {
		if err := r.locker.ReleaseLock(context.WithoutCancel(ctx), reconcileLockKey, token); err != nil {
			r.logger.Warn("failed to release reconcile lock", zap.Error(err))
		}
	}()

	report, err = r.uc.Reconcile(ctx)
	if err != nil {
		return nil, true, err
	}
	r.logger.Info("reconcile finished",
		zap.Int("checked", report.Checked),
		zap.Int("discrepancies", len(report.Discrepancies)),
	)
	return report, true, nil
}
