package utils

import (
	"fmt"
	"os"
	"strconv"
)

// EnvOrDefault returns the value of the env var, or the default when unset or empty.
func EnvOrDefault(env, defaultVal string) string {
	if val := os.Getenv(env); val != "" {
		return val
	}
	return defaultVal
}

// MustEnvOrDefaultInt64 panics if the env var is set but not parseable as an int64.
func MustEnvOrDefaultInt64(env string, defaultVal int64) int64 {
	val := os.Getenv(env)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("failed to parse env var %s as int64: %s", env, err))
	}
	return parsed
}
