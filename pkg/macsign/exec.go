package macsign

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Executor runs an external tool to completion and returns its combined
// output. A non-zero exit is returned as an error carrying the captured
// diagnostic text.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s failed: %w: %s", name, err, bytes.TrimSpace(out))
	}
	return out, nil
}
