package marathon

import (
	"os"

	"github.com/certra/Certra/utils"
)

var (
	Env_MarathonURL = utils.EnvOrDefault("MARATHON_URL", "https://marathon.mesos:8443/")
	// Env_ServiceAccountCredential authenticates platform calls. Absence means
	// unauthenticated calls, which is logged but not fatal.
	Env_ServiceAccountCredential = os.Getenv("DCOS_SERVICE_ACCOUNT_CREDENTIAL")
	// The in-cluster Marathon endpoint commonly serves a self-signed
	// certificate, so verification is off unless explicitly enabled.
	Env_TLSVerify = os.Getenv("MARATHON_TLS_VERIFY") == "1"

	// Env_AppID is this workload's own app id, Env_LBID the load balancer's.
	Env_AppID = os.Getenv("MARATHON_APP_ID")
	Env_LBID  = os.Getenv("MARATHON_LB_ID")

	Env_DeployPollSeconds    = utils.MustEnvOrDefaultInt64("DEPLOY_POLL_SEC", 5)
	Env_DeployTimeoutSeconds = utils.MustEnvOrDefaultInt64("DEPLOY_TIMEOUT_SEC", 300)
)
