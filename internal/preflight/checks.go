package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"curator/internal/backend"
)

const (
	serverCheck      = "Video server"
	credentialsCheck = "Credentials"
	checkTimeout     = 10 * time.Second
)

// CheckServer verifies the video server answers an anonymous listing.
func CheckServer(ctx context.Context, client *backend.Client) Result {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	users, err := client.ListUsers(checkCtx)
	if err != nil {
		return Result{Name: serverCheck, Detail: summarizeError(err)}
	}
	return Result{Name: serverCheck, Passed: true, Detail: fmt.Sprintf("%s (reachable, %d users)", client.BaseURL(), len(users))}
}

// CheckCredentials signs in with the configured username and token.
func CheckCredentials(ctx context.Context, client *backend.Client) Result {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	account, err := client.SignIn(checkCtx)
	if err != nil {
		if backend.IsUnauthorized(err) {
			return Result{Name: credentialsCheck, Detail: fmt.Sprintf("%s (error: incorrect username or token)", client.Username())}
		}
		return Result{Name: credentialsCheck, Detail: summarizeError(err)}
	}
	return Result{
		Name:   credentialsCheck,
		Passed: true,
		Detail: fmt.Sprintf("%s (user %d, %s)", client.Username(), account.UserID, account.Permission),
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (server unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (server unreachable)"
	}
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("unexpected status %d", statusErr.StatusCode)
	}
	return err.Error()
}
