package runner

import (
	"github.com/certra/Certra/utils"
)

var (
	Env_BackoffInitialSec = utils.MustEnvOrDefaultInt64("BACKOFF_INITIAL_SEC", 30)
	Env_BackoffBudgetSec  = utils.MustEnvOrDefaultInt64("BACKOFF_BUDGET_SEC", 3600)
	Env_RunIntervalSec    = utils.MustEnvOrDefaultInt64("RUN_INTERVAL_SEC", 24*60*60)
)
