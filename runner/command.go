package runner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cratekit/cargo-acceptor/types"
)

// ManifestFileName is the manifest cargo resolves a project from.
const ManifestFileName = "Cargo.toml"

// Command is a fully built test-tool invocation. Env holds the variables the
// invocation requires on top of the inherited environment; they are explicit
// fields rather than process-global state so concurrent runs cannot interfere.
type Command struct {
	Binary string
	Args   []string
	Env    map[string]string
	Dir    string
}

// String renders the invocation for logging.
func (c Command) String() string {
	return c.Binary + " " + strings.Join(c.Args, " ")
}

// Example built commands:
//
//	cargo test --workspace --no-fail-fast --manifest-path <root>/Cargo.toml -- -Z unstable-options --format=json
//	cargo test --package my-package --lib --no-fail-fast --manifest-path <root>/Cargo.toml -- module::func -Z unstable-options --format=json

// BuildTestCommand maps a backend, an optional test filter, a scope and the
// pass-through options to a deterministic cargo invocation rooted at root.
// It is a pure data transform and never fails; spawn-time errors belong to
// startCommand.
func BuildTestCommand(backend types.TestBackend, filter string, scope types.TestScope, opts types.CargoOptions, root string) Command {
	cmd := Command{
		Binary: "cargo",
		Dir:    root,
		// Structured libtest output needs unstable driver features.
		Env: map[string]string{"RUSTC_BOOTSTRAP": "1"},
	}

	switch backend {
	case types.BackendCargoNextest:
		cmd.Env["NEXTEST_EXPERIMENTAL_LIBTEST_JSON"] = "1"
		cmd.Args = append(cmd.Args, "nextest", "run")
		if filter != "" {
			cmd.Args = append(cmd.Args, "-E", filter)
		}
	default:
		cmd.Args = append(cmd.Args, "test")
		if scope.Workspace {
			cmd.Args = append(cmd.Args, "--workspace")
		} else {
			cmd.Args = append(cmd.Args, "--package", scope.Package)
			switch scope.Kind {
			case types.TargetLib:
				// No name needed, a package has at most one lib target.
				cmd.Args = append(cmd.Args, "--lib")
			case types.TargetOther:
				// No cargo flag for this kind.
			default:
				cmd.Args = append(cmd.Args, fmt.Sprintf("--%s", scope.Kind), scope.Target)
			}
		}
	}

	// --no-fail-fast ensures all requested tests run in one invocation.
	cmd.Args = append(cmd.Args, "--no-fail-fast")
	cmd.Args = append(cmd.Args, "--manifest-path", filepath.Join(root, ManifestFileName))
	cmd.Args = opts.ApplyTo(cmd.Args)

	switch backend {
	case types.BackendCargoNextest:
		cmd.Args = append(cmd.Args, "--message-format", "libtest-json")
		cmd.Args = append(cmd.Args, "--")
	default:
		cmd.Args = append(cmd.Args, "--")
		if filter != "" {
			cmd.Args = append(cmd.Args, filter)
		}
		cmd.Args = append(cmd.Args, "-Z", "unstable-options")
		cmd.Args = append(cmd.Args, "--format=json")
		cmd.Args = append(cmd.Args, opts.ExtraTestBinaryArgs...)
	}

	return cmd
}
