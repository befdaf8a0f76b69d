package mssql

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"
)

func init() {
	engine.Register(engine.AdapterRegistration{
		Info: engine.AdapterInfo{
			Type:        "sqlserver",
			DisplayName: "Microsoft SQL Server",
		},
		Factory: func(_ context.Context, config map[string]any, logger *zap.Logger) (engine.Engine, error) {
			cfg, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return NewEngine(cfg, logger)
		},
	})
}
