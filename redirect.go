package samlconnector

import (
	"bytes"
	"compress/flate"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"net/url"
	"time"

	"github.com/hashicorp/go-uuid"
)

// AuthnRequest is the subset of the SAML 2.0 authentication request this
// connector emits for the HTTP-Redirect binding.
// See 3.4.1 http://docs.oasis-open.org/security/saml/v2.0/saml-core-2.0-os.pdf
type AuthnRequest struct {
	XMLName xml.Name `xml:"urn:oasis:names:tc:SAML:2.0:protocol AuthnRequest"`

	ID           string    `xml:",attr"`
	Version      string    `xml:",attr"`
	IssueInstant time.Time `xml:",attr"`
	Destination  string    `xml:",attr"`

	// ProtocolBinding identifies the binding the IDP should use when
	// returning the Response message.
	ProtocolBinding             ServiceBinding `xml:",attr"`
	AssertionConsumerServiceURL string         `xml:",attr"`

	Issuer *Issuer
}

// Issuer identifies the requesting service provider; for this connector
// that is always the tenant's domain ID.
type Issuer struct {
	XMLName xml.Name `xml:"urn:oasis:names:tc:SAML:2.0:assertion Issuer"`

	Value string `xml:",chardata"`
}

// AuthnRequestRedirect builds the IDP redirect URL that starts an
// SP-initiated login for the given tenant: the metadata SSO location
// with a deflated, base64-encoded SAMLRequest query parameter, per the
// HTTP-Redirect binding.
func (c *Connector) AuthnRequestRedirect(ctx context.Context, httpHost, metadataURL, domainID, relayState string) (*url.URL, *AuthnRequest, error) {
	const op = "samlconnector.Connector.AuthnRequestRedirect"

	settings, err := c.BuildSettings(ctx, httpHost, metadataURL, domainID)
	if err != nil {
		return nil, nil, err
	}

	if settings.IDP.SSOURL == "" {
		c.logger.Error("IDP metadata advertises no single sign-on endpoint",
			"metadata_url", metadataURL, "domain_id", domainID)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrMissingSSOLocation)
	}

	requestID, err := generateAuthRequestID()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	authn := &AuthnRequest{
		ID:                          requestID,
		Version:                     "2.0",
		IssueInstant:                c.clock.Now().UTC(),
		Destination:                 settings.IDP.SSOURL,
		ProtocolBinding:             settings.SP.ACSBinding,
		AssertionConsumerServiceURL: settings.SP.ACSURL,
		Issuer:                      &Issuer{Value: settings.SP.EntityID},
	}

	payload, err := deflate(authn)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to deflate/compress request: %w", op, err)
	}

	redirect, err := url.Parse(authn.Destination)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to parse destination URL: %w", op, err)
	}

	vals := redirect.Query()
	vals.Set("SAMLRequest", base64.StdEncoding.EncodeToString(payload))
	if relayState != "" {
		vals.Set("RelayState", relayState)
	}
	redirect.RawQuery = vals.Encode()

	return redirect, authn, nil
}

// generateAuthRequestID generates an xsd:ID conform request ID: a UUID
// prefixed with an underscore, since xsd:ID values must not start with
// a digit.
func generateAuthRequestID() (string, error) {
	newID, err := uuid.GenerateUUID()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("_%s", newID), nil
}

func deflate(authn *AuthnRequest) ([]byte, error) {
	buf := bytes.Buffer{}

	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	defer fw.Close()

	if err := xml.NewEncoder(fw).Encode(authn); err != nil {
		return nil, err
	}

	if err := fw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
