package extapi

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"
)

// EngineEnvVar overrides the engine binary lookup.
const EngineEnvVar = "GODOT4_BIN"

// engineNames are tried on PATH, in order, when nothing is configured.
var engineNames = []string{"godot4", "godot"}

// Engine is an engine binary able to dump its API description.
type Engine struct {
	Path string
}

// LocateEngine finds the engine binary: explicit path first, then
// $GODOT4_BIN, then well-known names on PATH.
func LocateEngine(explicit string) (*Engine, error) {
	candidates := []string{explicit, os.Getenv(EngineEnvVar)}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, err := os.Stat(c); err != nil {
			return nil, loadErr(c, ErrEngineNotFound, "%v", err)
		}
		// DumpAPI runs the binary from a scratch directory.
		abs, err := filepath.Abs(c)
		if err != nil {
			return nil, loadErr(c, ErrEngineNotFound, "%v", err)
		}
		return &Engine{Path: abs}, nil
	}
	for _, name := range engineNames {
		if p, err := exec.LookPath(name); err == nil {
			return &Engine{Path: p}, nil
		}
	}
	return nil, loadErr(strings.Join(engineNames, "|"), ErrEngineNotFound, "set %s or engine.binary in gdbind.toml", EngineEnvVar)
}

// Version runs the binary with --version and returns its trimmed output.
func (e *Engine) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, e.Path, "--version")
	out, err := cmd.Output()
	if err != nil {
		return "", loadErr(e.Path, ErrEngineFailed, "--version: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1]), nil
}

// Fingerprint hashes the binary's contents together with its version
// string. Two binaries with the same fingerprint dump the same description.
func (e *Engine) Fingerprint(version string) (string, error) {
	f, err := os.Open(e.Path)
	if err != nil {
		return "", loadErr(e.Path, ErrEngineNotFound, "%v", err)
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", loadErr(e.Path, ErrEngineFailed, "hashing: %v", err)
	}
	h.Write([]byte(version))
	sum := h.Sum128().Bytes()
	return hex.EncodeToString(sum[:]), nil
}

// DumpAPI runs the binary headless with --dump-extension-api in a scratch
// directory and returns the written description.
func (e *Engine) DumpAPI(ctx context.Context) ([]byte, error) {
	dir, err := os.MkdirTemp("", "gdbind-dump-")
	if err != nil {
		return nil, loadErr(e.Path, ErrEngineFailed, "creating dump dir: %v", err)
	}
	defer os.RemoveAll(dir)

	cmd := exec.CommandContext(ctx, e.Path, "--headless", "--dump-extension-api")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, loadErr(e.Path, ErrEngineFailed, "%s: %v", strings.TrimSpace(string(out)), err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "extension_api.json"))
	if err != nil {
		return nil, loadErr(e.Path, ErrEngineFailed, "no description written: %v", err)
	}
	return data, nil
}
