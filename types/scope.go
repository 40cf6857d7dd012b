package types

import "fmt"

// TestBackend selects which external test driver is invoked.
type TestBackend string

const (
	// BackendCargoTest is the stock `cargo test` driver.
	BackendCargoTest TestBackend = "cargo-test"
	// BackendCargoNextest is the `cargo nextest` driver.
	BackendCargoNextest TestBackend = "cargo-nextest"
)

// ParseBackend maps a user-supplied backend name to a TestBackend.
func ParseBackend(s string) (TestBackend, error) {
	switch s {
	case "", "cargo-test", "test":
		return BackendCargoTest, nil
	case "cargo-nextest", "nextest":
		return BackendCargoNextest, nil
	default:
		return "", fmt.Errorf("unknown test backend %q", s)
	}
}

// TargetKind identifies the kind of build target a test selection refers to.
// TargetLib needs no target name because a package has at most one library
// target. TargetOther has no cargo flag at all and is silently omitted from
// built commands. Every other kind is passed as `--<kind> <target>`.
type TargetKind string

const (
	TargetLib     TargetKind = "lib"
	TargetBin     TargetKind = "bin"
	TargetExample TargetKind = "example"
	TargetBench   TargetKind = "bench"
	TargetTest    TargetKind = "test"
	TargetOther   TargetKind = ""
)

// TestScope selects which tests a run covers: the entire workspace, or one
// build target of one package.
type TestScope struct {
	// Workspace selects every package in the workspace. When set the
	// remaining fields are ignored.
	Workspace bool

	Package string
	Target  string
	Kind    TargetKind
}

// WorkspaceScope returns a scope covering the whole workspace.
func WorkspaceScope() TestScope {
	return TestScope{Workspace: true}
}

// PackageScope returns a scope covering a single build target of a package.
func PackageScope(pkg, target string, kind TargetKind) TestScope {
	return TestScope{Package: pkg, Target: target, Kind: kind}
}

func (s TestScope) String() string {
	if s.Workspace {
		return "workspace"
	}
	if s.Kind == TargetOther || s.Kind == TargetLib {
		return fmt.Sprintf("%s (%s)", s.Package, s.kindLabel())
	}
	return fmt.Sprintf("%s (%s %s)", s.Package, s.Kind, s.Target)
}

func (s TestScope) kindLabel() string {
	if s.Kind == TargetOther {
		return "other"
	}
	return string(s.Kind)
}
