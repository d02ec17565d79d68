//go:build !windows

package resources

import (
	"os/exec"
	"strconv"

	"github.com/toolprint/just-mcp/pkg/logger"
)

// applyPlatformLimits passes a memory limit to a Unix child process as an
// RLIMIT_AS environment variable (in KiB); no rlimit is set on the process.
// A CPU limit is only logged with its computed nice value; no nice value is
// applied.
func applyPlatformLimits(cmd *exec.Cmd, limits Limits, log *logger.Logger) {
	if limits.MaxMemoryBytes != nil {
		memoryKB := *limits.MaxMemoryBytes / 1024
		cmd.Env = append(cmd.Env, "RLIMIT_AS="+strconv.FormatUint(memoryKB, 10))
	}
	if limits.MaxCPUPercent != nil && *limits.MaxCPUPercent < 100 {
		niceValue := 19 - (int(*limits.MaxCPUPercent) * 19 / 100)
		log.Debug("CPU limit %d%% requested; nice value %d not applied (requires process-group wrapping, not yet implemented)", *limits.MaxCPUPercent, niceValue)
	}
}
