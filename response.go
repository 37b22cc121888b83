package samlconnector

import (
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"regexp"

	"github.com/hashicorp/go-multierror"
	saml2 "github.com/russellhaering/gosaml2"
	dsig "github.com/russellhaering/goxmldsig"
)

// parseResponse drives the SAML engine over an encoded SAMLResponse and
// resolves the authenticated user. Each call is independent: the engine
// is constructed from the settings, processes exactly one response, and
// is discarded.
//
// Engine errors and warning conditions are folded into ErrAuthnFailed,
// carrying the engine error list for diagnostics. An accepted assertion
// without a subject identifier is the narrower ErrNotFound.
//
// Options:
// - WithClock
// - InsecureSkipSignatureValidation
func (c *Connector) parseResponse(samlResponse string, settings *Settings, opt ...Option) (*AuthenticatedUser, error) {
	const op = "samlconnector.Connector.parseResponse"

	if settings == nil {
		return nil, fmt.Errorf("%s: missing settings: %w", op, ErrInternal)
	}
	if samlResponse == "" {
		return nil, fmt.Errorf("%s: missing saml response: %w", op, ErrInvalidParameter)
	}

	opts := getParseResponseOptions(opt...)

	ip, err := c.internalParser(settings, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Signature, condition, destination and replay checks all happen
	// inside the engine.
	info, err := ip.RetrieveAssertionInfo(samlResponse)
	if err != nil {
		return nil, c.authnFailure(op, settings, err)
	}

	if w := info.WarningInfo; w != nil {
		var errs []error
		if w.InvalidTime {
			errs = append(errs, ErrInvalidTime)
		}
		if w.NotInAudience {
			errs = append(errs, ErrInvalidAudience)
		}
		if len(errs) > 0 {
			return nil, c.authnFailure(op, settings, errs...)
		}
	}

	if info.NameID == "" {
		c.logger.Error("assertion accepted but carries no NameID", "domain_id", settings.SP.EntityID)
		return nil, fmt.Errorf("%s: no NameID in assertion: %w", op, ErrNotFound)
	}

	return &AuthenticatedUser{UserID: info.NameID}, nil
}

func (c *Connector) authnFailure(op string, settings *Settings, errs ...error) error {
	merr := &multierror.Error{Errors: errs}
	c.logger.Error("saml response validation failed",
		"domain_id", settings.SP.EntityID, "errors", merr.Errors)
	return fmt.Errorf("%s: %w: %w", op, ErrAuthnFailed, merr)
}

// internalParser builds the gosaml2 service provider used for response
// validation from the per-call settings.
func (c *Connector) internalParser(settings *Settings, opts parseResponseOptions) (*saml2.SAMLServiceProvider, error) {
	certStore := dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{},
	}

	if !opts.skipSignatureValidation {
		parsed, err := parseCert(settings.IDP.X509Certificate)
		if err != nil {
			// The certificate came out of the metadata document, so an
			// undecodable one is a metadata resolution failure.
			return nil, fmt.Errorf("failed to parse IDP certificate: %w", ErrNotFound)
		}
		certStore.Roots = append(certStore.Roots, parsed)
	}

	sp := &saml2.SAMLServiceProvider{
		IdentityProviderIssuer:      settings.IDP.EntityID,
		IdentityProviderSSOURL:      settings.IDP.SSOURL,
		IdentityProviderSSOBinding:  string(settings.IDP.SSOBinding),
		ServiceProviderIssuer:       settings.SP.EntityID,
		AssertionConsumerServiceURL: settings.SP.ACSURL,
		AudienceURI:                 settings.SP.EntityID,
		IDPCertificateStore:         &certStore,
		AllowMissingAttributes:      !settings.Security.WantAttributeStatement,
		SkipSignatureValidation:     opts.skipSignatureValidation,
	}

	if opts.clock != nil {
		sp.Clock = dsig.NewFakeClock(opts.clock)
	}

	return sp, nil
}

var certWhitespace = regexp.MustCompile(`\s+`)

func parseCert(cert string) (*x509.Certificate, error) {
	cert = certWhitespace.ReplaceAllString(cert, "")
	certBytes, err := base64.StdEncoding.DecodeString(cert)
	if err != nil {
		return nil, fmt.Errorf("cannot decode certificate: %w", err)
	}

	parsedCert, err := x509.ParseCertificate(certBytes)
	if err != nil {
		return nil, err
	}

	return parsedCert, nil
}
