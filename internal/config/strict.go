package config

import (
	"fmt"
	"os"
	"strings"
)

// checkStrictRuntime is the Go realization of runtime.strict: Go has no
// prototype chain to pollute, so the closest analogue to "required
// platform hardening not present" is a user-controlled GODEBUG setting
// that would defeat the determinism this system's canonical encoder
// otherwise guarantees through explicit key sorting. Strict mode refuses
// to start if such a setting is present.
func checkStrictRuntime() error {
	godebug := strings.ToLower(os.Getenv("GODEBUG"))
	if strings.Contains(godebug, "randomizedmapiteration=0") || strings.Contains(godebug, "maphash=0") {
		return fmt.Errorf("config: runtime.strict requires map iteration randomization, GODEBUG disables it: %q", godebug)
	}
	return nil
}
