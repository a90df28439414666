// Package discovery fetches and caches the merchant's UCP profile, validates
// protocol-version compatibility, and computes the capability intersection
// between agent and merchant.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/mod/semver"

	"ucp-agent/internal/model"
	"ucp-agent/internal/transport"
)

// versionLayout is the UCP calendar-date version format.
const versionLayout = "2006-01-02"

// ProfileFetcher retrieves the merchant's discovery document.
// Interface allows mocking in tests.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context) (*model.DiscoveryProfile, error)
}

// Negotiator caches the merchant profile and answers capability questions.
// The cache has no TTL: callers control freshness per call via WithoutCache,
// and ClearProfileCache drops it explicitly.
type Negotiator struct {
	fetcher      ProfileFetcher
	agentVersion string
	agentCaps    []model.AgentCapability
	logger       *slog.Logger

	mu     sync.Mutex
	cached *model.DiscoveryProfile
}

// New creates a negotiator for the given fetcher and the agent's statically
// configured capabilities.
func New(fetcher ProfileFetcher, agentCaps []model.AgentCapability, logger *slog.Logger) *Negotiator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Negotiator{
		fetcher:      fetcher,
		agentVersion: transport.ProtocolVersion,
		agentCaps:    agentCaps,
		logger:       logger,
	}
}

// DiscoverOption customizes a Discover call.
type DiscoverOption func(*discoverOptions)

type discoverOptions struct {
	skipCache        bool
	skipVersionCheck bool
}

// WithoutCache forces a network fetch even when a profile is cached.
func WithoutCache() DiscoverOption {
	return func(o *discoverOptions) { o.skipCache = true }
}

// WithoutVersionCheck skips version compatibility validation.
func WithoutVersionCheck() DiscoverOption {
	return func(o *discoverOptions) { o.skipVersionCheck = true }
}

// Discover returns the merchant's UCP profile, fetching it once and caching
// until explicitly invalidated. Returns a VersionError when the agent's
// protocol version is chronologically newer than the merchant's.
func (n *Negotiator) Discover(ctx context.Context, opts ...DiscoverOption) (*model.DiscoveryProfile, error) {
	var o discoverOptions
	for _, opt := range opts {
		opt(&o)
	}

	n.mu.Lock()
	cached := n.cached
	n.mu.Unlock()

	if cached != nil && !o.skipCache {
		return cached, nil
	}

	profile, err := n.fetcher.FetchProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching merchant profile: %w", err)
	}

	if !o.skipVersionCheck {
		if err := n.validateVersion(profile.UCP.Version); err != nil {
			return nil, err
		}
	}

	n.mu.Lock()
	n.cached = profile
	n.mu.Unlock()

	return profile, nil
}

// ClearProfileCache discards the cached merchant profile.
func (n *Negotiator) ClearProfileCache() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cached = nil
}

// validateVersion checks that the merchant supports at least the agent's
// protocol version. Versions are YYYY-MM-DD; an agent newer than the
// merchant fails, an older agent is accepted. Unparseable versions skip
// validation (log-only) rather than block discovery.
func (n *Negotiator) validateVersion(merchantVersion string) error {
	agent, errA := time.Parse(versionLayout, n.agentVersion)
	merchant, errM := time.Parse(versionLayout, merchantVersion)
	if errA != nil || errM != nil {
		n.logger.Warn("could not parse UCP version, skipping validation",
			slog.String("agent_version", n.agentVersion),
			slog.String("merchant_version", merchantVersion),
		)
		return nil
	}

	if agent.After(merchant) {
		return &model.VersionError{
			AgentVersion:    n.agentVersion,
			MerchantVersion: merchantVersion,
		}
	}
	return nil
}

// CommonCapabilities returns the capabilities both agent and merchant
// support, matched by exact (name, version) pair. The merchant's version may
// arrive wrapped in an object indirection; VersionField unwraps it before
// comparison.
func (n *Negotiator) CommonCapabilities(ctx context.Context) ([]model.Capability, error) {
	profile, err := n.Discover(ctx)
	if err != nil {
		return nil, err
	}

	agentSet := make(map[model.AgentCapability]bool, len(n.agentCaps))
	for _, cap := range n.agentCaps {
		agentSet[cap] = true
	}

	var common []model.Capability
	for _, cap := range profile.UCP.Capabilities {
		key := model.AgentCapability{Name: cap.Name, Version: cap.Version.String()}
		if agentSet[key] {
			common = append(common, cap)
		}
	}
	return common, nil
}

// NegotiatedMetadata returns UCP metadata narrowed to the capabilities both
// sides support, with the merchant's version as canonical.
func (n *Negotiator) NegotiatedMetadata(ctx context.Context) (*model.UCPMetadata, error) {
	profile, err := n.Discover(ctx)
	if err != nil {
		return nil, err
	}
	common, err := n.CommonCapabilities(ctx)
	if err != nil {
		return nil, err
	}
	return &model.UCPMetadata{
		Version:      profile.UCP.Version,
		Capabilities: common,
	}, nil
}

// PaymentHandlers returns the merchant's advertised payment handlers whose
// version this agent can drive: handler version must not exceed the agent's.
func (n *Negotiator) PaymentHandlers(ctx context.Context) ([]model.PaymentHandlerInfo, error) {
	profile, err := n.Discover(ctx)
	if err != nil {
		return nil, err
	}

	var usable []model.PaymentHandlerInfo
	for _, h := range profile.UCP.PaymentHandlers {
		if handlerCompatible(h.Version.String(), n.agentVersion) {
			usable = append(usable, h)
		}
	}
	return usable, nil
}

// handlerCompatible reports whether a handler at handlerVersion can be
// driven by an agent at agentVersion. Uses semver comparison when both look
// like semver; otherwise string comparison, which is correct for the
// YYYY-MM-DD scheme.
func handlerCompatible(handlerVersion, agentVersion string) bool {
	if handlerVersion == "" {
		return true
	}

	hv := normalizeSemver(handlerVersion)
	av := normalizeSemver(agentVersion)
	if !semver.IsValid(hv) || !semver.IsValid(av) {
		return handlerVersion <= agentVersion
	}
	return semver.Compare(hv, av) <= 0
}

// normalizeSemver adds the "v" prefix semver parsing requires.
func normalizeSemver(v string) string {
	if v == "" {
		return "v0.0.0"
	}
	if v[0] != 'v' {
		return "v" + v
	}
	return v
}
