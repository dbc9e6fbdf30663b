package pgstore

import (
	"context"
	"time"

	"github.com/vitaup/VitaUpBack/internal/repository"
	"go.uber.org/zap"
)

// PruneRefreshTokens deletes refresh tokens that expired before now.
func PruneRefreshTokens(ctx context.Context, db repository.DBTX, now time.Time) (int64, error) {
	return repository.NewRefreshTokenRepository(db).DeleteExpired(ctx, now)
}

// RunTokenJanitor prunes expired refresh tokens on every interval until ctx
// is done.
func RunTokenJanitor(ctx context.Context, db repository.DBTX, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("pgstore")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			deleted, err := PruneRefreshTokens(ctx, db, now)
			if err != nil {
				logger.Warn("refresh_token_prune_failed", zap.Error(err))
				continue
			}
			if deleted > 0 {
				logger.Info("refresh_tokens_pruned", zap.Int64("count", deleted))
			}
		}
	}
}
