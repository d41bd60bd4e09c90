package preflight

import (
	"context"

	"curator/internal/backend"
	"curator/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Skipped bool
	Detail  string
}

// RunAll executes every applicable check for cfg against client.
func RunAll(ctx context.Context, cfg *config.Config, client *backend.Client) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if client == nil {
		return results
	}

	server := CheckServer(ctx, client)
	results = append(results, server)
	switch {
	case !client.HasCredentials():
		results = append(results, Result{Name: credentialsCheck, Skipped: true, Detail: "no username or token configured"})
	case !server.Passed:
		results = append(results, Result{Name: credentialsCheck, Skipped: true, Detail: "server unreachable"})
	default:
		results = append(results, CheckCredentials(ctx, client))
	}
	return results
}

// Failed reports whether any non-skipped check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			return true
		}
	}
	return false
}
