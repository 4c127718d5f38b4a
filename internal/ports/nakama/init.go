package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"kitchenrush/internal/config"
	"kitchenrush/internal/telemetry"
)

// InitModule wires RPCs and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	// Fail module load on a bad environment instead of on the first MatchCreate.
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg, err := config.Load(env)
	if err != nil {
		return err
	}
	if _, err := config.LoadCatalog(cfg.CatalogPath); err != nil {
		return err
	}

	collector := telemetry.NewCollector()

	if err := RegisterRPCs(initializer, collector); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameKitchen, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(collector), nil
	}); err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"tick_rate":      cfg.TickRate,
		"match_duration": cfg.MatchDuration.String(),
		"identity":       cfg.IdentityEnabled(),
	}).Info("Kitchen Rush Go module loaded.")
	return nil
}
