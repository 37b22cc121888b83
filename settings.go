package samlconnector

import (
	"context"
	"fmt"
)

type ServiceBinding string

const (
	ServiceBindingHTTPPost     ServiceBinding = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-POST"
	ServiceBindingHTTPRedirect ServiceBinding = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-Redirect"
)

// acsURLFormat is part of the wire contract with every configured IDP:
// the rendered URL must match the assertion consumer service URL
// registered on the IDP side for the tenant. Changing it requires
// coordinated IDP reconfiguration.
const acsURLFormat = "https://%s/console-api/extension/auth/saml/%s"

// Settings is the complete SP+IDP configuration handed to the SAML
// engine for one authorize call. It is rebuilt on every call: the
// request host feeds the ACS URL, so settings cannot be shared across
// requests.
type Settings struct {
	Strict bool
	Debug  bool

	IDP      IDPSettings
	SP       SPSettings
	Security SecuritySettings
}

// IDPSettings describes the identity provider as resolved from its
// metadata document.
type IDPSettings struct {
	EntityID        string
	SSOURL          string
	SSOBinding      ServiceBinding
	X509Certificate string
}

// SPSettings describes this service provider for a single tenant. The
// entity ID is the tenant's domain ID, binding the assertion audience
// to that tenant.
type SPSettings struct {
	EntityID   string
	ACSURL     string
	ACSBinding ServiceBinding
}

type SecuritySettings struct {
	WantAssertionsSigned   bool
	WantNameID             bool
	WantAttributeStatement bool
}

// BuildSettings fetches and parses the IDP metadata and assembles the
// settings for the given tenant. httpHost is the host of the inbound
// request and becomes the ACS URL host; domainID becomes both the SP
// entity ID and the final ACS URL path segment.
func (c *Connector) BuildSettings(ctx context.Context, httpHost, metadataURL, domainID string) (*Settings, error) {
	const op = "samlconnector.Connector.BuildSettings"

	if httpHost == "" {
		return nil, fmt.Errorf("%s: no http host provided: %w", op, ErrInvalidParameter)
	}
	if domainID == "" {
		return nil, fmt.Errorf("%s: no domain ID provided: %w", op, ErrInvalidParameter)
	}

	md, err := c.loadIdpMetadata(ctx, metadataURL)
	if err != nil {
		return nil, err
	}

	return &Settings{
		Strict: true,
		Debug:  c.debug,
		IDP: IDPSettings{
			EntityID:        md.EntityID,
			SSOURL:          md.SSORedirectURL,
			SSOBinding:      ServiceBindingHTTPRedirect,
			X509Certificate: md.X509Certificate,
		},
		SP: SPSettings{
			EntityID:   domainID,
			ACSURL:     fmt.Sprintf(acsURLFormat, httpHost, domainID),
			ACSBinding: ServiceBindingHTTPPost,
		},
		Security: SecuritySettings{
			WantAssertionsSigned:   true,
			WantNameID:             true,
			WantAttributeStatement: false,
		},
	}, nil
}
