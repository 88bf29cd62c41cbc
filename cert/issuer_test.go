package cert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commandRecorder struct {
	name string
	args []string
	out  []byte
	err  error
}

func (c *commandRecorder) run(name string, args ...string) ([]byte, error) {
	c.name = name
	c.args = args
	return c.out, c.err
}

func newTestIssuer(t *testing.T, method string) (*Issuer, *commandRecorder) {
	t.Helper()
	rec := &commandRecorder{}
	return &Issuer{
		ServerURL:   "https://acme-staging.api.letsencrypt.org/directory",
		Email:       "ops@example.com",
		Method:      method,
		DNSProvider: "route53",
		LegoPath:    "./lego",
		Store:       newTestStore(t),
		RunCommand:  rec.run,
	}, rec
}

func writeCrt(t *testing.T, s *Store, primaryDomain string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(s.CertDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.CertDir, primaryDomain+".crt"), []byte("cert"), 0o644))
}

func TestObtainFirstRunUsesRunMode(t *testing.T) {
	i, rec := newTestIssuer(t, "http")

	primary, err := i.Obtain(context.Background(), "a.example.com,b.example.com")
	require.NoError(t, err)
	assert.Equal(t, "a.example.com", primary)

	assert.Equal(t, "./lego", rec.name)
	assert.Equal(t, []string{
		"--server", "https://acme-staging.api.letsencrypt.org/directory",
		"--email", "ops@example.com",
		"--accept-tos",
		"--pem",
		"--domains", "a.example.com",
		"--domains", "b.example.com",
		"--http", ":8080",
		"--exclude", "tls-sni-01",
		"run",
	}, rec.args)
}

func TestObtainRenewsWhenDomainsUnchangedAndCertExists(t *testing.T) {
	i, rec := newTestIssuer(t, "dns")
	require.NoError(t, i.Store.WriteDomains("x.example.com"))
	writeCrt(t, i.Store, "x.example.com")

	primary, err := i.Obtain(context.Background(), "x.example.com")
	require.NoError(t, err)
	assert.Equal(t, "x.example.com", primary)

	assert.Equal(t, []string{
		"--server", "https://acme-staging.api.letsencrypt.org/directory",
		"--email", "ops@example.com",
		"--accept-tos",
		"--pem",
		"--domains", "x.example.com",
		"--dns", "route53",
		"--dns-resolvers", "8.8.8.8:53",
		"--exclude", "http-01",
		"renew", "--days", "80",
	}, rec.args)
}

func TestObtainModeDecision(t *testing.T) {
	tests := []struct {
		name        string
		lastDomains string
		crtExists   bool
		wantMode    string
	}{
		{"no state, no cert", "", false, "run"},
		{"state matches, no cert", "x.example.com", false, "run"},
		{"state differs, cert exists", "old.example.com", true, "run"},
		{"state matches, cert exists", "x.example.com", true, "renew"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, rec := newTestIssuer(t, "dns")
			if tt.lastDomains != "" {
				require.NoError(t, i.Store.WriteDomains(tt.lastDomains))
			}
			if tt.crtExists {
				writeCrt(t, i.Store, "x.example.com")
			}

			_, err := i.Obtain(context.Background(), "x.example.com")
			require.NoError(t, err)
			if tt.wantMode == "renew" {
				assert.Equal(t, []string{"renew", "--days", "80"}, rec.args[len(rec.args)-3:])
			} else {
				assert.Equal(t, "run", rec.args[len(rec.args)-1])
			}
		})
	}
}

func TestObtainFailurePreservesStateAndOutput(t *testing.T) {
	i, rec := newTestIssuer(t, "http")
	rec.out = []byte("lego: rate limited")
	rec.err = errors.New("exit status 1")

	_, err := i.Obtain(context.Background(), "a.example.com")
	require.Error(t, err)

	var issuanceErr *IssuanceError
	require.ErrorAs(t, err, &issuanceErr)
	assert.Contains(t, string(issuanceErr.Output), "rate limited")

	// A failed run must not advance the persisted domain set.
	last, err := i.Store.ReadLastDomains()
	require.NoError(t, err)
	assert.Empty(t, last)
}

func TestObtainSuccessPersistsDomains(t *testing.T) {
	i, _ := newTestIssuer(t, "http")

	_, err := i.Obtain(context.Background(), "a.example.com,b.example.com")
	require.NoError(t, err)

	last, err := i.Store.ReadLastDomains()
	require.NoError(t, err)
	assert.Equal(t, "a.example.com,b.example.com", last)
}
