// Package preflight provides readiness checks for the directories and the
// video server that curator depends on.
//
// The CLI "curator doctor" command runs every check and prints the results.
// Server checks only run when a URL is configured; the credential check is
// skipped when no username or token is set.
package preflight
