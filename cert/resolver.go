package cert

import (
	"context"
	"errors"
	"fmt"

	"github.com/certra/Certra/marathon"
)

const vhostLabel = "HAPROXY_0_VHOST"

var (
	// ErrUnknownVerificationMethod is a configuration fault, retrying cannot fix it.
	ErrUnknownVerificationMethod = errors.New("unknown verification method")
	ErrNoDomains                 = errors.New("no domains to certify")
)

type appGetter interface {
	GetApp(ctx context.Context, appID string) (*marathon.App, error)
}

// Resolver determines the domain set to certify. With http verification the
// domains come from the vhost label of this workload's own app definition, with
// dns verification from a statically configured list.
type Resolver struct {
	Method string
	// AppID is this workload's own app id, consulted in http mode.
	AppID string
	// StaticDomains is the comma-joined list used in dns mode.
	StaticDomains string

	Apps appGetter
}

func NewResolver(apps appGetter) *Resolver {
	return &Resolver{
		Method:        Env_VerificationMethod,
		AppID:         marathon.Env_AppID,
		StaticDomains: Env_Domains,
		Apps:          apps,
	}
}

// Resolve returns the ordered, comma-joined domain set. The first entry is the
// primary domain that names the certificate artifact.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	var domains string
	switch r.Method {
	case "http":
		app, err := r.Apps.GetApp(ctx, r.AppID)
		if err != nil {
			return "", fmt.Errorf("error fetching own app definition: %w", err)
		}
		domains = app.Labels[vhostLabel]
	case "dns":
		domains = r.StaticDomains
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownVerificationMethod, r.Method)
	}

	if domains == "" {
		return "", fmt.Errorf("%w (method %s)", ErrNoDomains, r.Method)
	}
	return domains, nil
}
