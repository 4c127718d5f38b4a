package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/heroiclabs/nakama-common/runtime"

	"kitchenrush/internal/app/identity"
	"kitchenrush/internal/config"
	"kitchenrush/internal/telemetry"
)

// QuickMatchResponse is the payload returned to clients when requesting a joinable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// IdentityResponse carries a signed identity token for the profile handshake.
type IdentityResponse struct {
	Token string `json:"token"`
}

// quickMatchQuery finds waiting kitchens with a free slot.
const quickMatchQuery = "+label.open:T +label.game:kitchenrush +label.phase:waiting"

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer, collector *telemetry.Collector) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcIssueIdentity, rpcIssueIdentity); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcKitchenMetrics, rpcKitchenMetrics(collector))
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	limit := 10
	authoritative := true

	minSize := 1
	maxSize := 3 // leave room for the caller

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, quickMatchQuery)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", err
	}

	if len(matches) > 0 {
		resp := QuickMatchResponse{MatchID: matches[0].MatchId, IsNew: false}
		b, _ := json.Marshal(resp)
		return string(b), nil
	}

	// Slot and owner assignment happen in MatchJoin.
	matchID, err := nk.MatchCreate(ctx, MatchNameKitchen, map[string]interface{}{})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", err
	}

	resp := QuickMatchResponse{MatchID: matchID, IsNew: true}
	b, _ := json.Marshal(resp)
	return string(b), nil
}

// rpcIssueIdentity signs an identity token for the calling user.
// Payload: (Optional) {"display_name": "..."}
func rpcIssueIdentity(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", 16) // UNAUTHENTICATED
	}

	var req struct {
		DisplayName string `json:"display_name"`
	}
	if strings.TrimSpace(payload) != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", 3) // INVALID_ARGUMENT
		}
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg, err := config.Load(env)
	if err != nil {
		logger.Error("IssueIdentity: invalid config: %v", err)
		return "", runtime.NewError("server misconfigured", 13) // INTERNAL
	}
	if !cfg.IdentityEnabled() {
		return "", runtime.NewError("identity tokens are disabled", 9) // FAILED_PRECONDITION
	}

	token, err := identity.NewService(cfg.IdentitySecret, cfg.IdentityIssuer, cfg.IdentityTTL).Issue(userID, req.DisplayName)
	if err != nil {
		logger.Error("IssueIdentity [User:%s]: %v", userID, err)
		return "", runtime.NewError("failed to issue token", 13)
	}

	b, err := json.Marshal(IdentityResponse{Token: token})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// rpcKitchenMetrics returns the process-wide match counters.
func rpcKitchenMetrics(collector *telemetry.Collector) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		samples, err := collector.Gather()
		if err != nil {
			logger.Error("KitchenMetrics: %v", err)
			return "", runtime.NewError("failed to gather metrics", 13)
		}
		b, err := json.Marshal(map[string]interface{}{"samples": samples})
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
