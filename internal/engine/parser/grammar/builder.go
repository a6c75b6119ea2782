package grammar

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// DefaultKotlinRepository is the grammar source used by Install when none is given.
const DefaultKotlinRepository = "https://github.com/fwcd/tree-sitter-kotlin"

// CurrentABIVersion is the newest grammar ABI the bundled tree-sitter runtime accepts.
const CurrentABIVersion = 15

// Builder compiles a tree-sitter grammar from a git repository into a shared object.
type Builder struct {
	WorkDir string
	Output  io.Writer
}

func NewBuilder(output io.Writer) (*Builder, error) {
	wd, err := os.MkdirTemp("", "koinlint-grammar")
	if err != nil {
		return nil, err
	}
	if output == nil {
		output = io.Discard
	}
	return &Builder{WorkDir: wd, Output: output}, nil
}

func (b *Builder) Cleanup() {
	os.RemoveAll(b.WorkDir)
}

// Build clones repoURL, generates the parser when needed and compiles it.
// It returns the paths of the shared object and node-types.json.
func (b *Builder) Build(ctx context.Context, name, repoURL string) (string, string, error) {
	repoDir := filepath.Join(b.WorkDir, name)
	if err := b.run(ctx, b.WorkDir, "git", "clone", "--depth", "1", repoURL, repoDir); err != nil {
		return "", "", fmt.Errorf("git clone: %w", err)
	}

	srcDir := filepath.Join(repoDir, "src")
	if _, err := os.Stat(filepath.Join(srcDir, "parser.c")); os.IsNotExist(err) {
		if err := b.run(ctx, repoDir, "tree-sitter", "generate"); err != nil {
			return "", "", fmt.Errorf("tree-sitter generate: %w", err)
		}
	}

	soPath := filepath.Join(b.WorkDir, sharedObjectName(name))
	args := []string{"-O2", "-o", soPath, "-I", srcDir, "-shared", "-fPIC", filepath.Join(srcDir, "parser.c")}
	if _, err := os.Stat(filepath.Join(srcDir, "scanner.c")); err == nil {
		args = append(args, filepath.Join(srcDir, "scanner.c"))
	}

	cc := os.Getenv("CC")
	if cc == "" {
		cc = "cc"
	}
	if err := b.run(ctx, repoDir, cc, args...); err != nil {
		return "", "", fmt.Errorf("compile: %w", err)
	}

	nodeTypesPath := filepath.Join(srcDir, "node-types.json")
	if _, err := os.Stat(nodeTypesPath); os.IsNotExist(err) {
		return "", "", fmt.Errorf("node-types.json not found")
	}
	return soPath, nodeTypesPath, nil
}

// Install builds the Kotlin grammar and records it in <grammarsDir>/manifest.toml.
func Install(ctx context.Context, grammarsDir, repoURL string, output io.Writer) (Artifact, error) {
	if repoURL == "" {
		repoURL = DefaultKotlinRepository
	}
	b, err := NewBuilder(output)
	if err != nil {
		return Artifact{}, err
	}
	defer b.Cleanup()

	soPath, nodeTypesPath, err := b.Build(ctx, "kotlin", repoURL)
	if err != nil {
		return Artifact{}, err
	}

	if err := os.MkdirAll(grammarsDir, 0o755); err != nil {
		return Artifact{}, err
	}
	artifact := Artifact{
		Language:         "kotlin",
		ABIVersion:       CurrentABIVersion,
		SharedObjectPath: filepath.Join("kotlin", filepath.Base(soPath)),
		NodeTypesPath:    filepath.Join("kotlin", "node-types.json"),
		Source:           repoURL,
	}
	if err := copyFile(soPath, filepath.Join(grammarsDir, artifact.SharedObjectPath)); err != nil {
		return Artifact{}, err
	}
	if err := copyFile(nodeTypesPath, filepath.Join(grammarsDir, artifact.NodeTypesPath)); err != nil {
		return Artifact{}, err
	}
	if artifact.SharedObjectHash, err = CalculateSHA256(filepath.Join(grammarsDir, artifact.SharedObjectPath)); err != nil {
		return Artifact{}, err
	}
	if artifact.NodeTypesHash, err = CalculateSHA256(filepath.Join(grammarsDir, artifact.NodeTypesPath)); err != nil {
		return Artifact{}, err
	}

	manifestPath := filepath.Join(grammarsDir, ManifestFile)
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		manifest = Manifest{Version: 1, AllowedABIVersions: []int{14, CurrentABIVersion}}
	}
	manifest.Put(artifact)
	if err := manifest.Save(manifestPath); err != nil {
		return Artifact{}, err
	}
	stored, _ := manifest.Find(artifact.Language)
	return stored, nil
}

func sharedObjectName(name string) string {
	switch runtime.GOOS {
	case "darwin":
		return name + ".dylib"
	case "windows":
		return name + ".dll"
	}
	return name + ".so"
}

func (b *Builder) run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = b.Output
	cmd.Stderr = b.Output
	return cmd.Run()
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
