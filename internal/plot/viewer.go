package plot

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Viewer displays a written figure to the operator.
type Viewer interface {
	Show(ctx context.Context, path string) error
}

// SystemViewer opens figures with the desktop's default image application and
// waits for the opener to exit.
type SystemViewer struct{}

func (SystemViewer) Show(ctx context.Context, path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", path)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", path)
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}
