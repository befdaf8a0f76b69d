package postgres

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"
)

func init() {
	engine.Register(engine.AdapterRegistration{
		Info: engine.AdapterInfo{
			Type:        "postgres",
			DisplayName: "PostgreSQL",
		},
		Factory: func(ctx context.Context, config map[string]any, logger *zap.Logger) (engine.Engine, error) {
			cfg, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return NewEngine(ctx, cfg, logger)
		},
	})
}
