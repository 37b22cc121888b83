package samlconnector

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jonboulle/clockwork"
)

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

type connectorOptions struct {
	logger   hclog.Logger
	client   *http.Client
	clock    clockwork.Clock
	cacheTTL time.Duration
	debug    bool
}

func connectorOptionsDefault() connectorOptions {
	return connectorOptions{
		logger: hclog.NewNullLogger(),
		clock:  clockwork.NewRealClock(),
		debug:  true,
	}
}

func getConnectorOptions(opt ...Option) connectorOptions {
	opts := connectorOptionsDefault()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger sets the logger used to report fetch and validation
// failures before they are returned to the caller.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*connectorOptions); ok {
			o.logger = l
		}
	}
}

// WithHTTPClient overrides the HTTP client used to fetch IDP metadata.
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*connectorOptions); ok {
			o.client = c
		}
	}
}

// WithMetadataCache enables a TTL-bounded cache of parsed IDP metadata,
// keyed by metadata URL. Without it every call re-fetches the metadata
// document, trading latency for certificate freshness. The TTL bounds
// how long a rotated IDP signing key can go unnoticed.
func WithMetadataCache(ttl time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*connectorOptions); ok {
			o.cacheTTL = ttl
		}
	}
}

// WithDebug toggles the debug flag propagated into the assembled
// settings. It defaults to true.
func WithDebug(debug bool) Option {
	return func(o interface{}) {
		if o, ok := o.(*connectorOptions); ok {
			o.debug = debug
		}
	}
}

// WithClock changes the clock used when generating requests and
// validating response conditions.
func WithClock(clock clockwork.Clock) Option {
	return func(o interface{}) {
		switch opts := o.(type) {
		case *connectorOptions:
			opts.clock = clock
		case *parseResponseOptions:
			opts.clock = clock
		}
	}
}

type parseResponseOptions struct {
	clock                   clockwork.Clock
	skipSignatureValidation bool
}

func parseResponseOptionsDefault() parseResponseOptions {
	return parseResponseOptions{}
}

func getParseResponseOptions(opt ...Option) parseResponseOptions {
	opts := parseResponseOptionsDefault()
	ApplyOpts(&opts, opt...)
	return opts
}

// InsecureSkipSignatureValidation disables/skips validation of the SAML
// Response and its assertions. This option should only be used for
// testing purposes.
func InsecureSkipSignatureValidation() Option {
	return func(o interface{}) {
		if o, ok := o.(*parseResponseOptions); ok {
			o.skipSignatureValidation = true
		}
	}
}
