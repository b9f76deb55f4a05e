package preflight

import (
	"footage/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks the three trees a run touches.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryReadable("Raw root", cfg.Paths.RawRoot),
		CheckDirectoryAccess("Staging root", cfg.Paths.StagingRoot),
		CheckDirectoryAccess("Final root", cfg.Paths.FinalRoot),
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, result := range results {
		if !result.Passed {
			out = append(out, result)
		}
	}
	return out
}
