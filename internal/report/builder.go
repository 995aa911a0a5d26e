package report

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cast"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/output"
	"github.com/pharaoh-reports/pharaoh/internal/settings"
)

// builderCommand reads report.builder_command, an argv list or a
// shell-quoted string. An empty value means no external builder.
func builderCommand(res *settings.Resolver) ([]string, error) {
	raw, err := res.Get("report.builder_command", settings.WithDefault(""))
	if err != nil {
		return nil, err
	}
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		words, err := shellquote.Split(v)
		if err != nil {
			return nil, oerrors.NewValidationError(
				fmt.Sprintf("invalid builder command %q: %v", v, err), "", "report.builder_command", "")
		}
		return words, nil
	default:
		words, err := cast.ToStringSliceE(v)
		if err != nil {
			return nil, oerrors.NewValidationError(
				fmt.Sprintf("invalid builder command: %v", err), "", "report.builder_command",
				"Use a list of arguments or a single command string")
		}
		return words, nil
	}
}

// expandCommand substitutes {source}, {output} and {builder} in every argument.
func expandCommand(command []string, stage, out, builder string) []string {
	r := strings.NewReplacer("{source}", stage, "{output}", out, "{builder}", builder)
	argv := make([]string, len(command))
	for i, arg := range command {
		argv[i] = r.Replace(arg)
	}
	return argv
}

// runBuilder runs the builder command and returns its exit status.
func runBuilder(ctx context.Context, command []string, stage, out, builder string) (int, error) {
	argv := expandCommand(command, stage, out, builder)
	logger := output.UnitLogger("builder")
	logger.Info("Running report builder", "command", shellquote.Join(argv...))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = stage
	stdout := output.NewLineWriter(logger.Info)
	stderr := output.NewLineWriter(logger.Warn)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		status := exitErr.ExitCode()
		logger.Error("Report builder failed", "status", status)
		return status, nil
	}
	if err != nil {
		return -1, fmt.Errorf("running builder %s: %w", argv[0], err)
	}
	output.Info("Report built", "path", out)
	return 0, nil
}
