package samlconnector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/beevik/etree"
)

const (
	namespaceMetadata = "urn:oasis:names:tc:SAML:2.0:metadata"
	namespaceXMLDSig  = "http://www.w3.org/2000/09/xmldsig#"
)

// IdpMetadata holds the values resolved from an identity provider's
// metadata document. It is derived once per fetch and never mutated.
type IdpMetadata struct {
	// EntityID is the globally unique identifier of the identity
	// provider, taken from the document root.
	EntityID string

	// X509Certificate is the base64 DER body of the IDP signing
	// certificate, without PEM headers.
	X509Certificate string

	// SSORedirectURL is the location of the first SingleSignOnService
	// endpoint in the document. Empty when the IDP advertises none.
	SSORedirectURL string
}

// fetchMetadata retrieves the raw metadata XML document from the given
// URL. Transport errors, timeouts and non-2xx statuses all collapse to
// ErrNotFound; callers are not meant to distinguish them.
func (c *Connector) fetchMetadata(ctx context.Context, metadataURL string) ([]byte, error) {
	const op = "samlconnector.Connector.fetchMetadata"

	if metadataURL == "" {
		return nil, fmt.Errorf("%s: no metadata URL provided: %w", op, ErrInvalidParameter)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid metadata URL: %w", op, ErrNotFound)
	}

	res, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("failed to fetch IDP metadata", "metadata_url", metadataURL, "error", err)
		return nil, fmt.Errorf("%s: failed to fetch metadata: %w", op, ErrNotFound)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.logger.Error("unexpected status fetching IDP metadata",
			"metadata_url", metadataURL, "status", res.StatusCode)
		return nil, fmt.Errorf("%s: unexpected status %d: %w", op, res.StatusCode, ErrNotFound)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		c.logger.Error("failed to read IDP metadata body", "metadata_url", metadataURL, "error", err)
		return nil, fmt.Errorf("%s: failed to read http body: %w", op, ErrNotFound)
	}

	return raw, nil
}

// parseMetadata extracts the entity ID, signing certificate and SSO
// location from a metadata XML document.
//
// The first X509Certificate element found anywhere in the signature
// namespace is used, and the first SingleSignOnService element is used
// regardless of its advertised binding.
func parseMetadata(data []byte) (*IdpMetadata, error) {
	const op = "samlconnector.parseMetadata"

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%s: failed to parse metadata XML: %w", op, ErrNotFound)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%s: empty metadata document: %w", op, ErrNotFound)
	}

	entityID := root.SelectAttrValue("entityID", "")
	if entityID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingEntityID)
	}

	cert := firstElementText(doc, "X509Certificate", namespaceXMLDSig)
	if cert == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingCertificate)
	}

	md := &IdpMetadata{
		EntityID:        entityID,
		X509Certificate: cert,
	}

	if sso := firstElement(doc, "SingleSignOnService", namespaceMetadata); sso != nil {
		md.SSORedirectURL = sso.SelectAttrValue("Location", "")
	}

	return md, nil
}

func firstElement(doc *etree.Document, local, namespace string) *etree.Element {
	for _, e := range doc.FindElements("//" + local) {
		if e.NamespaceURI() == namespace {
			return e
		}
	}
	return nil
}

func firstElementText(doc *etree.Document, local, namespace string) string {
	e := firstElement(doc, local, namespace)
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.Text())
}

// loadIdpMetadata fetches and parses the IDP metadata, consulting the
// TTL cache when one is configured.
func (c *Connector) loadIdpMetadata(ctx context.Context, metadataURL string) (*IdpMetadata, error) {
	if c.cache != nil {
		if md, ok := c.cache.Get(metadataURL); ok {
			return md, nil
		}
	}

	raw, err := c.fetchMetadata(ctx, metadataURL)
	if err != nil {
		return nil, err
	}

	md, err := parseMetadata(raw)
	if err != nil {
		c.logger.Error("failed to parse IDP metadata", "metadata_url", metadataURL, "error", err)
		return nil, err
	}

	if c.cache != nil {
		c.cache.Add(metadataURL, md)
	}

	return md, nil
}
