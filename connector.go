package samlconnector

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jonboulle/clockwork"
)

const (
	defaultFetchTimeout = 30 * time.Second

	// metadataCacheSize bounds the optional cache; one entry per
	// distinct metadata URL is plenty for a per-tenant connector.
	metadataCacheSize = 32
)

// Connector implements the SAML side of console federation. It is safe
// for concurrent use; no state is shared between calls beyond the
// immutable client, logger and clock, and the optional metadata cache.
type Connector struct {
	client *http.Client
	logger hclog.Logger
	clock  clockwork.Clock
	cache  *expirable.LRU[string, *IdpMetadata]
	debug  bool
}

// NewConnector creates a Connector.
//
// Options:
// - WithLogger
// - WithHTTPClient
// - WithMetadataCache
// - WithClock
// - WithDebug
func NewConnector(opt ...Option) *Connector {
	opts := getConnectorOptions(opt...)

	client := opts.client
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
		client.Timeout = defaultFetchTimeout
	}

	c := &Connector{
		client: client,
		logger: opts.logger,
		clock:  opts.clock,
		debug:  opts.debug,
	}

	if opts.cacheTTL > 0 {
		c.cache = expirable.NewLRU[string, *IdpMetadata](metadataCacheSize, nil, opts.cacheTTL)
	}

	return c
}

// InitOptions carries the provider configuration the directory service
// hands to Init. Everything except the metadata URL is passed through
// into the summary.
type InitOptions struct {
	Protocol         string
	IdentityProvider string
	Icon             string
	MetadataURL      string
}

// ProviderSummary is the UI-ready description of a configured identity
// provider returned by Init.
type ProviderSummary struct {
	IdentityProvider string `json:"identity_provider"`
	Protocol         string `json:"protocol"`
	Icon             string `json:"icon,omitempty"`
	IDPDisplayName   string `json:"idp_display_name"`
	SSOURL           string `json:"sso_url,omitempty"`
}

// RequestParams carries the raw inbound request values relevant to an
// authorize call.
type RequestParams struct {
	// HTTPHost is the host of the inbound request; it becomes the host
	// of the ACS URL in the assembled settings.
	HTTPHost string

	// SAMLResponse is the base64-encoded response posted by the IDP.
	SAMLResponse string

	// RelayState is passed through untouched.
	RelayState string
}

// AuthenticatedUser is the identity extracted from a valid assertion.
// The NameID is the only attribute this connector resolves.
type AuthenticatedUser struct {
	UserID string `json:"user_id"`
}

// Init checks the connection to the IDP using the SAML metadata URL and
// returns a summary of the provider. It performs no assertion
// validation and retains no settings: the single fetch proves the
// metadata URL is reachable and well formed during provider onboarding.
func (c *Connector) Init(ctx context.Context, options InitOptions) (*ProviderSummary, error) {
	const op = "samlconnector.Connector.Init"

	protocol := options.Protocol
	if protocol == "" {
		protocol = "saml"
	}

	raw, err := c.fetchMetadata(ctx, options.MetadataURL)
	if err != nil {
		return nil, err
	}

	md, err := parseMetadata(raw)
	if err != nil {
		c.logger.Error("failed to parse IDP metadata", "metadata_url", options.MetadataURL, "error", err)
		return nil, err
	}

	return &ProviderSummary{
		IdentityProvider: options.IdentityProvider,
		Protocol:         protocol,
		Icon:             options.Icon,
		IDPDisplayName:   DisplayName(options.IdentityProvider),
		SSOURL:           md.SSORedirectURL,
	}, nil
}

// Authorize validates an inbound SAML response for the given tenant and
// returns the authenticated user. Settings are assembled fresh from the
// IDP metadata on every call.
//
// Failures surface as ErrAuthnFailed (the engine rejected the response;
// see ValidationErrors) or ErrNotFound (metadata could not be resolved,
// or the accepted assertion carries no subject).
func (c *Connector) Authorize(ctx context.Context, params RequestParams, metadataURL, domainID string, opt ...Option) (*AuthenticatedUser, error) {
	settings, err := c.BuildSettings(ctx, params.HTTPHost, metadataURL, domainID)
	if err != nil {
		return nil, err
	}

	return c.parseResponse(params.SAMLResponse, settings, opt...)
}
