package bindgen

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/tools/imports"
)

// formatChunk bounds the number of paths handed to one formatter call.
const formatChunk = 20

// Formatter rewrites generated files in place.
type Formatter interface {
	Format(ctx context.Context, paths []string) error
}

// ProcessFormatter runs an external command with the paths appended.
type ProcessFormatter struct {
	Command []string
}

// DefaultFormatter is gofmt with simplification.
func DefaultFormatter() *ProcessFormatter {
	return &ProcessFormatter{Command: []string{"gofmt", "-s", "-w"}}
}

func (p *ProcessFormatter) Format(ctx context.Context, paths []string) error {
	if len(p.Command) == 0 {
		return fmt.Errorf("formatter command is empty")
	}
	for start := 0; start < len(paths); start += formatChunk {
		end := min(start+formatChunk, len(paths))
		args := append(append([]string{}, p.Command[1:]...), paths[start:end]...)
		cmd := exec.CommandContext(ctx, p.Command[0], args...)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("%s: %s: %w", p.Command[0], strings.TrimSpace(string(out)), err)
		}
	}
	return nil
}

// ImportsFormatter formats in process with goimports rules.
type ImportsFormatter struct{}

func (ImportsFormatter) Format(ctx context.Context, paths []string) error {
	opts := &imports.Options{Comments: true, TabIndent: true, TabWidth: 8, FormatOnly: true}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		out, err := imports.Process(p, src, opts)
		if err != nil {
			return fmt.Errorf("formatting %s: %w", p, err)
		}
		if err := os.WriteFile(p, out, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", p, err)
		}
	}
	return nil
}

// NewFormatter picks a formatter by name: "imports" for the in-process
// formatter, anything else is split into a command line.
func NewFormatter(spec string) Formatter {
	switch strings.TrimSpace(spec) {
	case "":
		return DefaultFormatter()
	case "imports", "goimports":
		return ImportsFormatter{}
	}
	return &ProcessFormatter{Command: strings.Fields(spec)}
}
