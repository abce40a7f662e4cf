package app

import (
	"os"
	"strconv"
	"sync"
)

const testModeEnv = "STOREFRONT_TEST_MODE"

// InTestMode reports whether the binaries should stop before dialing redis or
// binding a port. The flag is read once per process.
var InTestMode = sync.OnceValue(func() bool {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	return err == nil && on
})
