package nakama

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"kitchenrush/internal/app/identity"
	"kitchenrush/internal/telemetry"
)

// fakeNakama implements the two NakamaModule calls quick_match needs.
type fakeNakama struct {
	runtime.NakamaModule

	matches   []*api.Match
	lastQuery string
	created   []string
}

func (f *fakeNakama) MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error) {
	f.lastQuery = query
	return f.matches, nil
}

func (f *fakeNakama) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	f.created = append(f.created, module)
	return "match-new", nil
}

func TestRpcQuickMatch(t *testing.T) {
	tests := []struct {
		name    string
		matches []*api.Match
		want    QuickMatchResponse
	}{
		{
			name:    "JoinsExisting",
			matches: []*api.Match{{MatchId: "match-1"}},
			want:    QuickMatchResponse{MatchID: "match-1", IsNew: false},
		},
		{
			name: "CreatesWhenNoneOpen",
			want: QuickMatchResponse{MatchID: "match-new", IsNew: true},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			nk := &fakeNakama{matches: test.matches}
			raw, err := rpcQuickMatch(context.Background(), noopLogger{}, nil, nk, "")
			if err != nil {
				t.Fatalf("rpcQuickMatch error: %v", err)
			}
			var got QuickMatchResponse
			if err := json.Unmarshal([]byte(raw), &got); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if got != test.want {
				t.Fatalf("Got %+v, want %+v", got, test.want)
			}
			if nk.lastQuery != quickMatchQuery {
				t.Fatalf("query = %q", nk.lastQuery)
			}
			if test.want.IsNew && (len(nk.created) != 1 || nk.created[0] != MatchNameKitchen) {
				t.Fatalf("created = %v", nk.created)
			}
		})
	}
}

func TestRpcIssueIdentity(t *testing.T) {
	env := map[string]string{"kitchenrush_identity_secret": "test-secret"}
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_ENV, env)
	ctx = context.WithValue(ctx, runtime.RUNTIME_CTX_USER_ID, "user123")

	raw, err := rpcIssueIdentity(ctx, noopLogger{}, nil, nil, `{"display_name":"Chef"}`)
	if err != nil {
		t.Fatalf("rpcIssueIdentity error: %v", err)
	}
	var resp IdentityResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	sub, err := identity.NewService("test-secret", "kitchenrush", time.Hour).Verify(resp.Token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if sub != "user123" {
		t.Fatalf("subject = %q, want user123", sub)
	}
}

func TestRpcIssueIdentity_Errors(t *testing.T) {
	withUser := context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, "user123")

	tests := []struct {
		name    string
		ctx     context.Context
		payload string
	}{
		{name: "Unauthenticated", ctx: context.Background()},
		{name: "Disabled", ctx: context.WithValue(withUser, runtime.RUNTIME_CTX_ENV, map[string]string{})},
		{
			name:    "BadPayload",
			ctx:     context.WithValue(withUser, runtime.RUNTIME_CTX_ENV, map[string]string{"kitchenrush_identity_secret": "s"}),
			payload: "{",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := rpcIssueIdentity(test.ctx, noopLogger{}, nil, nil, test.payload); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRpcKitchenMetrics(t *testing.T) {
	collector := telemetry.NewCollector()
	collector.MatchStarted()

	raw, err := rpcKitchenMetrics(collector)(context.Background(), noopLogger{}, nil, nil, "")
	if err != nil {
		t.Fatalf("rpcKitchenMetrics error: %v", err)
	}
	var resp struct {
		Samples []telemetry.Sample `json:"samples"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	found := false
	for _, s := range resp.Samples {
		if s.Name == "kitchenrush_active_matches" && s.Value == 1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("active matches sample missing from %+v", resp.Samples)
	}
}
