package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/logging"
	"github.com/ekaya-inc/ekaya-tables/pkg/retry"
)

// Open builds the engine registered under engineType and waits for it to
// answer a ping, retrying with backoff. The engine is closed if it never
// becomes reachable.
func Open(ctx context.Context, engineType string, config map[string]any, retryCfg *retry.Config, logger *zap.Logger) (Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	factory := GetFactory(engineType)
	if factory == nil {
		return nil, fmt.Errorf("unsupported engine type: %s (not compiled in)", engineType)
	}

	eng, err := factory(ctx, config, logger)
	if err != nil {
		return nil, fmt.Errorf("create %s engine: %w", engineType, err)
	}

	attempt := 0
	err = retry.Do(ctx, retryCfg, func() error {
		attempt++
		if err := eng.Ping(ctx); err != nil {
			logger.Warn("Engine not reachable yet",
				zap.String("engine", engineType),
				zap.Int("attempt", attempt),
				zap.String("error", logging.SanitizeError(err)))
			return err
		}
		return nil
	})
	if err != nil {
		_ = eng.Close()
		return nil, fmt.Errorf("ping %s engine: %w", engineType, err)
	}

	logger.Info("Engine connected", zap.String("engine", engineType), zap.Int("attempts", attempt))
	return eng, nil
}
