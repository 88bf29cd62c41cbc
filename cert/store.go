package cert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store persists the domain set used by the previous successful issuance and
// resolves where the issuing program leaves certificate material on disk.
// One running instance must own the directory exclusively, there is no locking.
type Store struct {
	// CertDir is where the issuing program writes per-domain certificate files.
	CertDir string
	// DomainsFile holds the comma-joined domain set of the last successful run.
	DomainsFile string
}

func NewStore() *Store {
	return &Store{
		CertDir:     Env_CertDir,
		DomainsFile: Env_DomainsFile,
	}
}

// ReadLastDomains returns the domain set from the previous run, or "" when no
// state file exists yet. A missing file is how a first-ever run looks, so it
// is not an error.
func (s *Store) ReadLastDomains() (string, error) {
	content, err := os.ReadFile(s.DomainsFile)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("error reading domains file %s: %w", s.DomainsFile, err)
	}
	return string(content), nil
}

// WriteDomains records the domain set after a successful issuance. Callers must
// only invoke this once issuance has fully succeeded, the renew/run decision on
// the next run depends on it.
func (s *Store) WriteDomains(domains string) error {
	if err := os.MkdirAll(filepath.Dir(s.DomainsFile), 0o755); err != nil {
		return fmt.Errorf("error creating state dir: %w", err)
	}
	if err := os.WriteFile(s.DomainsFile, []byte(domains), 0o644); err != nil {
		return fmt.Errorf("error writing domains file %s: %w", s.DomainsFile, err)
	}
	return nil
}

// CertPath returns the combined cert+key file for the primary domain. Wildcard
// markers are normalized because the issuing program does the same when naming
// files.
func (s *Store) CertPath(primaryDomain string) string {
	if strings.HasPrefix(primaryDomain, "*") {
		primaryDomain = strings.ReplaceAll(primaryDomain, "*", "_")
	}
	return filepath.Join(s.CertDir, primaryDomain+".pem")
}

// CertExists reports whether a certificate was previously issued for the
// primary domain, checked against the sibling .crt the issuing program writes.
func (s *Store) CertExists(primaryDomain string) bool {
	_, err := os.Stat(filepath.Join(s.CertDir, primaryDomain+".crt"))
	return err == nil
}
