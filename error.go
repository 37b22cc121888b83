package samlconnector

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrNotFound indicates that the IDP metadata could not be retrieved
	// or that a required value could not be resolved from it. It is also
	// returned when an otherwise valid assertion carries no subject
	// identifier.
	ErrNotFound = errors.New("not found")

	// ErrAuthnFailed indicates that the SAML engine rejected the
	// response. The individual engine errors can be recovered with
	// ValidationErrors.
	ErrAuthnFailed = errors.New("authentication failed")

	ErrInternal         = errors.New("internal error")
	ErrInvalidParameter = errors.New("invalid parameter")

	ErrMissingEntityID    = fmt.Errorf("no entityID attribute in metadata: %w", ErrNotFound)
	ErrMissingCertificate = fmt.Errorf("no signing certificate in metadata: %w", ErrNotFound)
	ErrMissingSSOLocation = fmt.Errorf("no single sign-on location in metadata: %w", ErrNotFound)

	ErrInvalidTime     = errors.New("invalid time")
	ErrInvalidAudience = errors.New("invalid audience")
)

// ValidationErrors returns the engine error list carried by an
// ErrAuthnFailed error, or nil if err holds none.
func ValidationErrors(err error) []error {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return merr.Errors
	}
	return nil
}
