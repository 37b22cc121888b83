// samlconnector provides the service-provider side of SAML 2.0
// federation for the console: fetching and parsing identity provider
// metadata, assembling the SP/IDP settings for a tenant, and validating
// inbound assertions to resolve the authenticated user.
//
// Assertion cryptography is delegated to github.com/russellhaering/gosaml2;
// this package never verifies signatures itself.
package samlconnector
