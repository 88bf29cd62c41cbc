package cert

import (
	"os"

	"github.com/certra/Certra/utils"
)

const DefaultACMEURL = "https://acme-staging.api.letsencrypt.org/directory"

var (
	Env_ACMEURL            = utils.EnvOrDefault("LETSENCRYPT_URL", DefaultACMEURL)
	Env_Email              = os.Getenv("LETSENCRYPT_EMAIL")
	Env_VerificationMethod = utils.EnvOrDefault("LETSENCRYPT_VERIFICATION_METHOD", "http")
	Env_Domains            = os.Getenv("DOMAINS")
	Env_DNSProvider        = utils.EnvOrDefault("DNSPROVIDER", "route53")

	Env_LegoPath    = utils.EnvOrDefault("LEGO_PATH", "./lego")
	Env_CertDir     = utils.EnvOrDefault("CERTIFICATES_DIR", ".lego/certificates")
	Env_DomainsFile = utils.EnvOrDefault("DOMAINS_FILE", ".lego/current_domains")
)
