package audit

import (
	"context"
	"os/exec"
	"strings"

	"github.com/avelar/sitegauge/internal/types"
)

// LocalRunner shells out to an installed lighthouse CLI and captures its
// JSON report from stdout. The report is the bare lighthouse result
// (no hosted-API wrapper); the normalizer accepts both shapes.
type LocalRunner struct {
	// Bin is the lighthouse executable, "lighthouse" by default.
	Bin string
	// ChromeFlags are passed through to the controlled Chrome instance.
	ChromeFlags string
}

// NewLocalRunner creates a runner for the given lighthouse binary.
func NewLocalRunner(bin string) *LocalRunner {
	if bin == "" {
		bin = "lighthouse"
	}
	return &LocalRunner{
		Bin:         bin,
		ChromeFlags: "--headless --no-sandbox --disable-gpu",
	}
}

// Name identifies the provider in logs and artifacts.
func (r *LocalRunner) Name() string { return "lighthouse-cli" }

// Audit runs lighthouse against the target and returns its JSON report.
func (r *LocalRunner) Audit(ctx context.Context, target string, strategy types.Strategy) ([]byte, error) {
	args := []string{
		target,
		"--output=json",
		"--output-path=stdout",
		"--quiet",
		"--only-categories=" + strings.Join(categories, ","),
		"--chrome-flags=" + r.ChromeFlags,
	}
	if strategy == types.StrategyDesktop {
		args = append(args, "--preset=desktop")
	} else {
		args = append(args, "--form-factor=mobile")
	}

	cmd := exec.CommandContext(ctx, r.Bin, args...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Kind: KindNetwork, URL: target, Cause: ctx.Err()}
		}
		return nil, &Error{Kind: KindUpstream, URL: target, Body: stderr.String(), Cause: err}
	}

	return []byte(stdout.String()), nil
}
