package util

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/fanforge/fanforged/internal/ui"
)

// SafeCmdExecution executes the given executable, but only if its file
// permissions make tampering by non-root users impossible.
func SafeCmdExecution(executable string, args []string, timeout time.Duration) (string, error) {
	if _, err := CheckFilePermissionsForExecution(executable); err != nil {
		return "", fmt.Errorf("cannot execute %s: %s", executable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, executable, args...)
	out, err := cmd.Output()

	if ctx.Err() == context.DeadlineExceeded {
		ui.Warning("Command timed out: %s", executable)
		return "", err
	}

	if err != nil {
		ui.Warning("Command failed to execute: %s", executable)
		return "", err
	}

	return strings.Trim(string(out), "\n"), nil
}
