package transcriber

import (
	"scribe/internal/config"
	"scribe/internal/deps"
)

// depsForHealth is swapped in tests to avoid PATH lookups.
var depsForHealth = func(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}
