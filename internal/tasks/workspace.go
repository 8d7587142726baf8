package tasks

import (
	"context"
	"fmt"
	"os"

	"github.com/tupyy/taskpool/pkg/pool"
)

// Workspace is the private scratch directory of a worker.
type Workspace struct {
	Dir string
}

// WorkspaceInitializer returns a worker initializer creating one directory
// per worker under root.
func WorkspaceInitializer(root string) pool.Initializer {
	return func(ctx context.Context) (any, error) {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create workspace root: %w", err)
		}
		dir, err := os.MkdirTemp(root, "worker-")
		if err != nil {
			return nil, fmt.Errorf("failed to create worker workspace: %w", err)
		}
		return &Workspace{Dir: dir}, nil
	}
}
