package cert

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/certra/Certra/gologger"
	"github.com/certra/Certra/internal"
	"github.com/certra/Certra/tracing"
	"github.com/samber/lo"
)

var logger = gologger.NewLogger()

// renewDays is passed to the issuing program so renewal is a no-op until the
// certificate is within this many days of expiry.
const renewDays = "80"

// IssuanceError carries the combined output of a failed issuing-program run.
type IssuanceError struct {
	Output []byte
	Err    error
}

func (e *IssuanceError) Error() string {
	return fmt.Sprintf("obtaining certificates failed: %s\n%s", e.Err, e.Output)
}

func (e *IssuanceError) Unwrap() error {
	return e.Err
}

// Issuer obtains certificates by invoking an external ACME client (lego) as a
// subprocess. It decides between a full issuance and a renewal based on whether
// the domain set changed since the last successful run and whether a
// certificate already exists.
type Issuer struct {
	ServerURL   string
	Email       string
	Method      string
	DNSProvider string
	LegoPath    string
	Store       *Store

	// RunCommand is swappable in tests. The default runs the program
	// synchronously and returns its combined stdout and stderr.
	RunCommand func(name string, args ...string) ([]byte, error)
}

func NewIssuer(store *Store) *Issuer {
	return &Issuer{
		ServerURL:   Env_ACMEURL,
		Email:       Env_Email,
		Method:      Env_VerificationMethod,
		DNSProvider: Env_DNSProvider,
		LegoPath:    Env_LegoPath,
		Store:       store,
		RunCommand: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).CombinedOutput()
		},
	}
}

// Obtain issues or renews a certificate for the comma-joined domain set and
// returns the primary domain so the caller can locate the artifact. The new
// domain set is persisted only after the issuing program exits successfully.
func (i *Issuer) Obtain(ctx context.Context, domains string) (string, error) {
	_, span := tracing.CertraTracer.Start(ctx, "obtainCertificate")
	defer span.End()

	lastDomains, err := i.Store.ReadLastDomains()
	if err != nil {
		return "", fmt.Errorf("error in ReadLastDomains: %w", err)
	}

	primaryDomain := strings.Split(domains, ",")[0]
	args := i.buildArgs(domains)

	if domains == lastDomains && i.Store.CertExists(primaryDomain) {
		logger.Info().Str("domains", domains).Msg("Renewing certificates")
		internal.Metric_CertRenewals.Inc()
		args = append(args, "renew", "--days", renewDays)
	} else {
		logger.Info().Str("domains", domains).Msg("Requesting new certificates")
		internal.Metric_CertIssues.Inc()
		args = append(args, "run")
	}

	out, err := i.RunCommand(i.LegoPath, args...)
	if err != nil {
		internal.Metric_IssuanceFailures.Inc()
		return "", &IssuanceError{Output: out, Err: err}
	}

	if err := i.Store.WriteDomains(domains); err != nil {
		return "", fmt.Errorf("error in WriteDomains: %w", err)
	}
	return primaryDomain, nil
}

func (i *Issuer) buildArgs(domains string) []string {
	args := []string{
		"--server", i.ServerURL,
		"--email", i.Email,
		"--accept-tos",
		"--pem",
	}
	args = append(args, lo.FlatMap(strings.Split(domains, ","), func(domain string, _ int) []string {
		return []string{"--domains", domain}
	})...)

	switch i.Method {
	case "http":
		// Exclude tls-sni-01 so the http-01 solver is used, answering on :8080.
		args = append(args, "--http", ":8080", "--exclude", "tls-sni-01")
	case "dns":
		args = append(args,
			"--dns", i.DNSProvider,
			"--dns-resolvers", "8.8.8.8:53",
			"--exclude", "http-01",
		)
	}
	return args
}
