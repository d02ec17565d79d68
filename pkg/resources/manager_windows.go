//go:build windows

package resources

import (
	"os/exec"

	"github.com/toolprint/just-mcp/pkg/logger"
)

// applyPlatformLimits is a no-op on Windows: memory/CPU limiting would
// require the Job Objects API, which is not implemented here.
func applyPlatformLimits(cmd *exec.Cmd, limits Limits, log *logger.Logger) {
	if limits.MaxMemoryBytes != nil || limits.MaxCPUPercent != nil {
		log.Warn("memory and CPU limits are not enforced on Windows")
	}
}
