package samlconnector

import (
	"strings"
	"unicode"
)

// idpDisplayNames maps the short identity provider keys used by the
// directory service to their marketing names. Unknown keys fall back to
// DisplayName's capitalization.
var idpDisplayNames = map[string]string{
	"okta":               "Okta",
	"frontegg":           "Frontegg",
	"auth0":              "Auth0",
	"one_login":          "OneLogin",
	"pops":               "Megazone PoPs",
	"ping_identity":      "Ping Identity",
	"workos":             "WorkOS",
	"keycloak":           "Keycloak",
	"microsoft_entra_id": "Microsoft Entra ID",
}

// DisplayName resolves the display name for an identity provider key.
// Keys without a catalog entry are returned with their first rune
// upper-cased and the remainder lower-cased.
func DisplayName(identityProvider string) string {
	if name, ok := idpDisplayNames[identityProvider]; ok {
		return name
	}
	return capitalize(identityProvider)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return string(unicode.ToUpper(r[0])) + strings.ToLower(string(r[1:]))
}
