package discovery

import (
	"context"
	"errors"
	"testing"

	"ucp-agent/internal/model"
)

type fakeFetcher struct {
	profile *model.DiscoveryProfile
	err     error
	calls   int
}

func (f *fakeFetcher) FetchProfile(ctx context.Context) (*model.DiscoveryProfile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func profileWithVersion(v string) *model.DiscoveryProfile {
	return &model.DiscoveryProfile{
		UCP: model.UCPMetadata{Version: v},
	}
}

func TestDiscoverCachesProfile(t *testing.T) {
	f := &fakeFetcher{profile: profileWithVersion("2026-01-11")}
	n := New(f, nil, nil)

	if _, err := n.Discover(context.Background()); err != nil {
		t.Fatalf("first Discover: %v", err)
	}
	if _, err := n.Discover(context.Background()); err != nil {
		t.Fatalf("second Discover: %v", err)
	}
	if f.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", f.calls)
	}
}

func TestDiscoverWithoutCache(t *testing.T) {
	f := &fakeFetcher{profile: profileWithVersion("2026-01-11")}
	n := New(f, nil, nil)

	if _, err := n.Discover(context.Background()); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if _, err := n.Discover(context.Background(), WithoutCache()); err != nil {
		t.Fatalf("Discover without cache: %v", err)
	}
	if f.calls != 2 {
		t.Errorf("fetch calls = %d, want 2", f.calls)
	}
}

func TestClearProfileCache(t *testing.T) {
	f := &fakeFetcher{profile: profileWithVersion("2026-01-11")}
	n := New(f, nil, nil)

	if _, err := n.Discover(context.Background()); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	n.ClearProfileCache()
	if _, err := n.Discover(context.Background()); err != nil {
		t.Fatalf("Discover after clear: %v", err)
	}
	if f.calls != 2 {
		t.Errorf("fetch calls = %d, want 2", f.calls)
	}
}

func TestVersionValidation(t *testing.T) {
	cases := []struct {
		name            string
		merchantVersion string
		wantErr         bool
	}{
		{"merchant older fails", "2026-01-10", true},
		{"merchant equal succeeds", "2026-01-11", false},
		{"merchant newer succeeds", "2026-06-01", false},
		{"unparseable version skips check", "experimental", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeFetcher{profile: profileWithVersion(tc.merchantVersion)}
			n := New(f, nil, nil)

			_, err := n.Discover(context.Background())
			if tc.wantErr {
				var ve *model.VersionError
				if !errors.As(err, &ve) {
					t.Fatalf("Discover error = %v, want VersionError", err)
				}
				if ve.MerchantVersion != tc.merchantVersion {
					t.Errorf("MerchantVersion = %q, want %q", ve.MerchantVersion, tc.merchantVersion)
				}
			} else if err != nil {
				t.Fatalf("Discover: %v", err)
			}
		})
	}
}

func TestVersionErrorNotCached(t *testing.T) {
	f := &fakeFetcher{profile: profileWithVersion("2026-01-10")}
	n := New(f, nil, nil)

	if _, err := n.Discover(context.Background()); err == nil {
		t.Fatal("Discover succeeded with incompatible merchant version")
	}
	// An incompatible profile must not be served from cache later.
	f.profile = profileWithVersion("2026-01-11")
	if _, err := n.Discover(context.Background()); err != nil {
		t.Fatalf("Discover after merchant upgrade: %v", err)
	}
	if f.calls != 2 {
		t.Errorf("fetch calls = %d, want 2", f.calls)
	}
}

func TestCommonCapabilities(t *testing.T) {
	profile := profileWithVersion("2026-01-11")
	profile.UCP.Capabilities = []model.Capability{
		{Name: "dev.ucp.shopping.checkout", Version: model.NewVersion("2026-01-11")},
		{Name: "dev.ucp.shopping.discounts", Version: model.NewVersion("2026-01-11")},
		{Name: "dev.ucp.shopping.checkout", Version: model.NewVersion("2025-06-01")},
	}
	agentCaps := []model.AgentCapability{
		{Name: "dev.ucp.shopping.checkout", Version: "2026-01-11"},
		{Name: "dev.ucp.shopping.fulfillment", Version: "2026-01-11"},
	}

	n := New(&fakeFetcher{profile: profile}, agentCaps, nil)
	common, err := n.CommonCapabilities(context.Background())
	if err != nil {
		t.Fatalf("CommonCapabilities: %v", err)
	}
	if len(common) != 1 {
		t.Fatalf("len(common) = %d, want 1", len(common))
	}
	if common[0].Name != "dev.ucp.shopping.checkout" || common[0].Version.String() != "2026-01-11" {
		t.Errorf("common[0] = %+v, want checkout at 2026-01-11", common[0])
	}
}

func TestNegotiatedMetadata(t *testing.T) {
	profile := profileWithVersion("2026-03-01")
	profile.UCP.Capabilities = []model.Capability{
		{Name: "dev.ucp.shopping.checkout", Version: model.NewVersion("2026-01-11")},
	}
	agentCaps := []model.AgentCapability{
		{Name: "dev.ucp.shopping.checkout", Version: "2026-01-11"},
	}

	n := New(&fakeFetcher{profile: profile}, agentCaps, nil)
	meta, err := n.NegotiatedMetadata(context.Background())
	if err != nil {
		t.Fatalf("NegotiatedMetadata: %v", err)
	}
	if meta.Version != "2026-03-01" {
		t.Errorf("Version = %q, want merchant version", meta.Version)
	}
	if len(meta.Capabilities) != 1 {
		t.Errorf("len(Capabilities) = %d, want 1", len(meta.Capabilities))
	}
}

func TestPaymentHandlers(t *testing.T) {
	profile := profileWithVersion("2026-01-11")
	profile.UCP.PaymentHandlers = []model.PaymentHandlerInfo{
		{ID: "legacy_card", Version: model.NewVersion("2025-01-01")},
		{ID: "current_card", Version: model.NewVersion("2026-01-11")},
		{ID: "future_wallet", Version: model.NewVersion("2027-01-01")},
		{ID: "unversioned"},
	}

	n := New(&fakeFetcher{profile: profile}, nil, nil)
	handlers, err := n.PaymentHandlers(context.Background())
	if err != nil {
		t.Fatalf("PaymentHandlers: %v", err)
	}

	got := make(map[string]bool, len(handlers))
	for _, h := range handlers {
		got[h.ID] = true
	}
	for _, want := range []string{"legacy_card", "current_card", "unversioned"} {
		if !got[want] {
			t.Errorf("handler %q missing from usable set %v", want, handlers)
		}
	}
	if got["future_wallet"] {
		t.Error("future_wallet should not be usable")
	}
}

func TestHandlerCompatibleSemver(t *testing.T) {
	if !handlerCompatible("1.2.0", "1.3.0") {
		t.Error("older semver handler should be compatible")
	}
	if handlerCompatible("2.0.0", "1.3.0") {
		t.Error("newer semver handler should not be compatible")
	}
}
