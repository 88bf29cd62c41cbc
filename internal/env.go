package internal

import (
	"github.com/certra/Certra/utils"
)

var (
	Env_InternalPort = utils.EnvOrDefault("INTERNAL_PORT", "8091")
)
