package identity

import (
	"context"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Resolver yields the user id of a request; empty means anonymous
type Resolver interface {
	CurrentUserID(ctx context.Context, r *http.Request) (string, error)
}

const (
	ModeHeader   = "header"
	ModeAPIKey   = "apikey"
	ModeProvider = "provider"
)

// Options selects and configures a resolver
type Options struct {
	Mode        string
	Header      string
	APIKeys     map[string]string
	ProviderURL string
	Cookie      string
	Timeout     time.Duration
}

func New(opt Options) (Resolver, error) {
	switch opt.Mode {
	case "", ModeHeader:
		return HeaderResolver{Header: opt.Header}, nil
	case ModeAPIKey:
		if len(opt.APIKeys) == 0 {
			return nil, goerr.New("identity mode apikey needs at least one key")
		}
		return APIKeyResolver{Keys: opt.APIKeys}, nil
	case ModeProvider:
		if opt.ProviderURL == "" {
			return nil, goerr.New("identity mode provider needs provider_url")
		}
		return NewProviderResolver(opt.ProviderURL, opt.Cookie, opt.Timeout), nil
	default:
		return nil, goerr.New("unknown identity mode", goerr.V("mode", opt.Mode))
	}
}
