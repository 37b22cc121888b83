// Package testprovider runs an in-process identity provider for tests:
// an httptest server that serves IDP metadata and can be switched into
// failure modes.
package testprovider

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// SigningCert is the base64 DER body of the signing certificate
// advertised in the test provider's metadata. It is the public
// samltest.id certificate, so fixtures signed by that IDP validate
// against metadata served here.
const SigningCert = `MIIDEjCCAfqgAwIBAgIVAMECQ1tjghafm5OxWDh9hwZfxthWMA0GCSqGSIb3DQEBCwUAMBYxFDAS
BgNVBAMMC3NhbWx0ZXN0LmlkMB4XDTE4MDgyNDIxMTQwOVoXDTM4MDgyNDIxMTQwOVowFjEUMBIG
A1UEAwwLc2FtbHRlc3QuaWQwggEiMA0GCSqGSIb3DQEBAQUAA4IBDwAwggEKAoIBAQC0Z4QX1NFK
s71ufbQwoQoW7qkNAJRIANGA4iM0ThYghul3pC+FwrGv37aTxWXfA1UG9njKbbDreiDAZKngCgyj
xj0uJ4lArgkr4AOEjj5zXA81uGHARfUBctvQcsZpBIxDOvUUImAl+3NqLgMGF2fktxMG7kX3GEVN
c1klbN3dfYsaw5dUrw25DheL9np7G/+28GwHPvLb4aptOiONbCaVvh9UMHEA9F7c0zfF/cL5fOpd
Va54wTI0u12CsFKt78h6lEGG5jUs/qX9clZncJM7EFkN3imPPy+0HC8nspXiH/MZW8o2cqWRkrw3
MzBZW3Ojk5nQj40V6NUbjb7kfejzAgMBAAGjVzBVMB0GA1UdDgQWBBQT6Y9J3Tw/hOGc8PNV7JEE
4k2ZNTA0BgNVHREELTArggtzYW1sdGVzdC5pZIYcaHR0cHM6Ly9zYW1sdGVzdC5pZC9zYW1sL2lk
cDANBgkqhkiG9w0BAQsFAAOCAQEASk3guKfTkVhEaIVvxEPNR2w3vWt3fwmwJCccW98XXLWgNbu3
YaMb2RSn7Th4p3h+mfyk2don6au7Uyzc1Jd39RNv80TG5iQoxfCgphy1FYmmdaSfO8wvDtHTTNiL
ArAxOYtzfYbzb5QrNNH/gQEN8RJaEf/g/1GTw9x/103dSMK0RXtl+fRs2nblD1JJKSQ3AdhxK/we
P3aUPtLxVVJ9wMOQOfcy02l+hHMb6uAjsPOpOVKqi3M8XmcUZOpx4swtgGdeoSpeRyrtMvRwdcci
NBp9UZome44qZAYH1iqrpmmjsfI9pJItsgWu3kXPjhSfj1AJGR1l9JGvJrHki1iHTA==`

// EntityID is the entity ID advertised in the default metadata.
const EntityID = "https://samltest.id/saml/idp"

const metadataTmpl = `<?xml version="1.0" encoding="UTF-8"?>
<md:EntityDescriptor xmlns:md="urn:oasis:names:tc:SAML:2.0:metadata" entityID="%s">
  <md:IDPSSODescriptor WantAuthnRequestsSigned="false" protocolSupportEnumeration="urn:oasis:names:tc:SAML:2.0:protocol">
    <md:KeyDescriptor use="signing">
      <ds:KeyInfo xmlns:ds="http://www.w3.org/2000/09/xmldsig#">
        <ds:X509Data>
          <ds:X509Certificate>%s</ds:X509Certificate>
        </ds:X509Data>
      </ds:KeyInfo>
    </md:KeyDescriptor>
    <md:NameIDFormat>urn:oasis:names:tc:SAML:1.1:nameid-format:emailAddress</md:NameIDFormat>
    <md:SingleSignOnService Binding="urn:oasis:names:tc:SAML:2.0:bindings:HTTP-Redirect" Location="%s/saml/login/redirect"/>
    <md:SingleSignOnService Binding="urn:oasis:names:tc:SAML:2.0:bindings:HTTP-POST" Location="%s/saml/login/post"/>
  </md:IDPSSODescriptor>
</md:EntityDescriptor>
`

// TestProvider is a fake identity provider serving metadata from an
// httptest server.
type TestProvider struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	failing  bool
	metadata string
	requests int
}

// StartTestProvider starts the provider. The server is shut down with
// Close, typically via defer.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()

	provider := &TestProvider{
		t: t,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/saml/metadata", provider.MetadataHandler)

	provider.server = httptest.NewServer(mux)
	provider.metadata = fmt.Sprintf(metadataTmpl,
		EntityID, SigningCert, provider.server.URL, provider.server.URL)

	return provider
}

func (p *TestProvider) Close() {
	p.server.Close()
}

// ServerURL returns the base URL of the provider server.
func (p *TestProvider) ServerURL() string {
	return p.server.URL
}

// MetadataURL returns the URL the provider serves its metadata on.
func (p *TestProvider) MetadataURL() string {
	return p.server.URL + "/saml/metadata"
}

// SSORedirectURL returns the HTTP-Redirect SSO location advertised in
// the default metadata.
func (p *TestProvider) SSORedirectURL() string {
	return p.server.URL + "/saml/login/redirect"
}

// SetFailing switches the metadata endpoint into 404 mode.
func (p *TestProvider) SetFailing(failing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing = failing
}

// SetMetadata replaces the metadata document the provider serves.
func (p *TestProvider) SetMetadata(metadata string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metadata = metadata
}

// Requests reports how many metadata requests the provider has served,
// including failing ones.
func (p *TestProvider) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}

func (p *TestProvider) MetadataHandler(w http.ResponseWriter, _ *http.Request) {
	p.mu.Lock()
	p.requests++
	failing, metadata := p.failing, p.metadata
	p.mu.Unlock()

	if failing {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/samlmetadata+xml")
	fmt.Fprint(w, metadata)
}
