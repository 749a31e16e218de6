// Package guard is blank-imported by tests that call a binary's main. It turns
// on SITE_TEST_MODE, so main returns before dialing Postgres or Redis, and
// supplies throwaway secrets for anything that loads configuration.
package guard

import "os"

var defaults = map[string]string{
	"SITE_TEST_MODE": "1",
	"SECRET_KEY":     "test-secret-key",
	"CSRF_SECRET":    "test-csrf-secret",
}

func init() {
	for key, value := range defaults {
		if _, set := os.LookupEnv(key); !set {
			_ = os.Setenv(key, value)
		}
	}
}
