package runner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cratekit/cargo-acceptor/types"
)

func TestBuildTestCommand_WorkspaceDefaults(t *testing.T) {
	cmd := BuildTestCommand(types.BackendCargoTest, "", types.WorkspaceScope(), types.CargoOptions{}, "/proj")

	assert.Equal(t, "cargo", cmd.Binary)
	assert.Equal(t, "/proj", cmd.Dir)
	assert.Equal(t, []string{
		"test",
		"--workspace",
		"--no-fail-fast",
		"--manifest-path", filepath.Join("/proj", "Cargo.toml"),
		"--",
		"-Z", "unstable-options",
		"--format=json",
	}, cmd.Args)
	assert.Equal(t, map[string]string{"RUSTC_BOOTSTRAP": "1"}, cmd.Env)
	assert.NotContains(t, cmd.Args, "--package")
}

func TestBuildTestCommand_PackageScopes(t *testing.T) {
	tests := []struct {
		name     string
		scope    types.TestScope
		wantArgs []string
	}{
		{
			name:  "lib target needs no name",
			scope: types.PackageScope("my-crate", "my-crate", types.TargetLib),
			wantArgs: []string{
				"test", "--package", "my-crate", "--lib",
			},
		},
		{
			name:  "other kind is silently omitted",
			scope: types.PackageScope("my-crate", "", types.TargetOther),
			wantArgs: []string{
				"test", "--package", "my-crate",
			},
		},
		{
			name:  "named bin kind emits flag and name",
			scope: types.PackageScope("my-crate", "cli", types.TargetBin),
			wantArgs: []string{
				"test", "--package", "my-crate", "--bin", "cli",
			},
		},
		{
			name:  "named example kind emits flag and name",
			scope: types.PackageScope("my-crate", "demo", types.TargetExample),
			wantArgs: []string{
				"test", "--package", "my-crate", "--example", "demo",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := BuildTestCommand(types.BackendCargoTest, "", tt.scope, types.CargoOptions{}, "/proj")
			require.Greater(t, len(cmd.Args), len(tt.wantArgs))
			assert.Equal(t, tt.wantArgs, cmd.Args[:len(tt.wantArgs)])
		})
	}
}

func TestBuildTestCommand_FilterPlacement(t *testing.T) {
	cmd := BuildTestCommand(types.BackendCargoTest, "module::func",
		types.PackageScope("my-crate", "my-crate", types.TargetLib), types.CargoOptions{}, "/proj")

	// The filter goes after the separator so it reaches the test binary.
	sep := indexOf(t, cmd.Args, "--")
	assert.Equal(t, "module::func", cmd.Args[sep+1])
	assert.Equal(t, []string{"-Z", "unstable-options", "--format=json"}, cmd.Args[sep+2:])
}

func TestBuildTestCommand_ExtraArgs(t *testing.T) {
	opts := types.CargoOptions{
		ExtraArgs:           []string{"--release"},
		ExtraTestBinaryArgs: []string{"--test-threads=1"},
	}
	cmd := BuildTestCommand(types.BackendCargoTest, "", types.WorkspaceScope(), opts, "/proj")

	sep := indexOf(t, cmd.Args, "--")
	assert.Contains(t, cmd.Args[:sep], "--release")
	assert.Equal(t, "--test-threads=1", cmd.Args[len(cmd.Args)-1],
		"test binary args must land after the separator")
}

func TestBuildTestCommand_Nextest(t *testing.T) {
	cmd := BuildTestCommand(types.BackendCargoNextest, "test(parser)",
		types.WorkspaceScope(), types.CargoOptions{}, "/proj")

	assert.Equal(t, []string{
		"nextest", "run",
		"-E", "test(parser)",
		"--no-fail-fast",
		"--manifest-path", filepath.Join("/proj", "Cargo.toml"),
		"--message-format", "libtest-json",
		"--",
	}, cmd.Args)
	assert.Equal(t, map[string]string{
		"RUSTC_BOOTSTRAP":                   "1",
		"NEXTEST_EXPERIMENTAL_LIBTEST_JSON": "1",
	}, cmd.Env)
}

func TestBuildTestCommand_NextestNoFilter(t *testing.T) {
	cmd := BuildTestCommand(types.BackendCargoNextest, "", types.WorkspaceScope(), types.CargoOptions{}, "/proj")
	assert.NotContains(t, cmd.Args, "-E")
}

func TestBuildTestCommand_Deterministic(t *testing.T) {
	opts := types.CargoOptions{ExtraArgs: []string{"--release"}}
	scope := types.PackageScope("my-crate", "cli", types.TargetBin)

	first := BuildTestCommand(types.BackendCargoTest, "module::func", scope, opts, "/proj")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildTestCommand(types.BackendCargoTest, "module::func", scope, opts, "/proj"))
	}
}

func indexOf(t *testing.T, args []string, want string) int {
	t.Helper()
	for i, arg := range args {
		if arg == want {
			return i
		}
	}
	t.Fatalf("argument %q not found in %v", want, args)
	return -1
}
