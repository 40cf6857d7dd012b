// Package manifest reads cargo manifests so package and target selections
// can be resolved and validated before a run is started.
package manifest

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/cratekit/cargo-acceptor/types"
)

// ManifestFileName is the file cargo resolves a project from.
const ManifestFileName = "Cargo.toml"

// Target is one build target of a package.
type Target struct {
	Name string
	Kind types.TargetKind
}

// Package is one cargo package and its test-relevant targets.
type Package struct {
	Name    string
	Dir     string
	Targets []Target
}

// Workspace is a loaded cargo project: the root package (if any) plus all
// workspace members.
type Workspace struct {
	Root     string
	Packages []Package
}

// manifestFile mirrors the subset of Cargo.toml this tool cares about.
type manifestFile struct {
	Package   *packageSection   `toml:"package"`
	Workspace *workspaceSection `toml:"workspace"`
	Lib       *targetSection    `toml:"lib"`
	Bin       []targetSection   `toml:"bin"`
	Example   []targetSection   `toml:"example"`
	Bench     []targetSection   `toml:"bench"`
	Test      []targetSection   `toml:"test"`
}

type packageSection struct {
	Name string `toml:"name"`
}

type workspaceSection struct {
	Members []string `toml:"members"`
}

type targetSection struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

// Load reads the manifest at root and the manifests of all workspace
// members.
func Load(root string) (*Workspace, error) {
	ws := &Workspace{Root: root}

	file, err := readManifest(root)
	if err != nil {
		return nil, err
	}
	if file.Package != nil {
		ws.Packages = append(ws.Packages, buildPackage(root, file))
	}

	if file.Workspace != nil {
		for _, member := range file.Workspace.Members {
			dirs, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(member)))
			if err != nil {
				return nil, errors.Wrapf(err, "bad workspace member pattern %q", member)
			}
			for _, dir := range dirs {
				memberFile, err := readManifest(dir)
				if err != nil {
					if os.IsNotExist(errors.Cause(err)) {
						continue
					}
					return nil, err
				}
				if memberFile.Package != nil {
					ws.Packages = append(ws.Packages, buildPackage(dir, memberFile))
				}
			}
		}
	}

	return ws, nil
}

func readManifest(dir string) (*manifestFile, error) {
	path := filepath.Join(dir, ManifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manifest %s", path)
	}
	var file manifestFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, "failed to parse manifest %s", path)
	}
	return &file, nil
}

// buildPackage collects a package's targets, including the conventional
// auto-discovered ones cargo infers from the source layout.
func buildPackage(dir string, file *manifestFile) Package {
	pkg := Package{Name: file.Package.Name, Dir: dir}

	if file.Lib != nil || fileExists(filepath.Join(dir, "src", "lib.rs")) {
		pkg.Targets = append(pkg.Targets, Target{Name: pkg.Name, Kind: types.TargetLib})
	}
	if fileExists(filepath.Join(dir, "src", "main.rs")) {
		pkg.Targets = append(pkg.Targets, Target{Name: pkg.Name, Kind: types.TargetBin})
	}

	for _, section := range file.Bin {
		pkg.addTarget(section.Name, types.TargetBin)
	}
	for _, section := range file.Example {
		pkg.addTarget(section.Name, types.TargetExample)
	}
	for _, section := range file.Bench {
		pkg.addTarget(section.Name, types.TargetBench)
	}
	for _, section := range file.Test {
		pkg.addTarget(section.Name, types.TargetTest)
	}
	return pkg
}

func (p *Package) addTarget(name string, kind types.TargetKind) {
	if name == "" {
		return
	}
	for _, t := range p.Targets {
		if t.Name == name && t.Kind == kind {
			return
		}
	}
	p.Targets = append(p.Targets, Target{Name: name, Kind: kind})
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Package finds a package by name.
func (w *Workspace) Package(name string) (*Package, bool) {
	for i := range w.Packages {
		if w.Packages[i].Name == name {
			return &w.Packages[i], true
		}
	}
	return nil, false
}

// ResolveScope maps a package/target selection to a TestScope. An empty
// package selects the whole workspace. An empty target prefers the package's
// library target.
func (w *Workspace) ResolveScope(pkgName, targetName string) (types.TestScope, error) {
	if pkgName == "" {
		return types.WorkspaceScope(), nil
	}

	pkg, ok := w.Package(pkgName)
	if !ok {
		return types.TestScope{}, errors.Errorf("package %q not found in workspace %s", pkgName, w.Root)
	}

	if targetName == "" {
		for _, t := range pkg.Targets {
			if t.Kind == types.TargetLib {
				return types.PackageScope(pkg.Name, t.Name, types.TargetLib), nil
			}
		}
		// No lib target; run the package without a target selector.
		return types.PackageScope(pkg.Name, "", types.TargetOther), nil
	}

	for _, t := range pkg.Targets {
		if t.Name == targetName {
			return types.PackageScope(pkg.Name, t.Name, t.Kind), nil
		}
	}
	return types.TestScope{}, errors.Errorf("target %q not found in package %q", targetName, pkgName)
}
