package grammar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ManifestFile is the manifest name inside a grammars directory.
const ManifestFile = "manifest.toml"

// Manifest lists the runtime-loadable grammar artifacts of a grammars directory.
type Manifest struct {
	Version            int        `toml:"version"`
	AllowedABIVersions []int      `toml:"allowed_abi_versions"`
	Artifacts          []Artifact `toml:"artifacts"`
}

// Artifact is one compiled grammar. Paths are relative to the grammars directory.
type Artifact struct {
	Language         string `toml:"language"`
	ABIVersion       int    `toml:"abi_version"`
	SharedObjectPath string `toml:"so_path"`
	SharedObjectHash string `toml:"so_sha256"`
	NodeTypesPath    string `toml:"node_types_path"`
	NodeTypesHash    string `toml:"node_types_sha256"`
	Source           string `toml:"source"`
	ApprovedDate     string `toml:"approved_date"`
}

// LoadManifest decodes and validates a manifest file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}

	var manifest Manifest
	if _, err := toml.Decode(string(data), &manifest); err != nil {
		return Manifest{}, err
	}

	if manifest.Version <= 0 {
		return Manifest{}, fmt.Errorf("manifest version must be > 0")
	}
	if len(manifest.AllowedABIVersions) == 0 {
		return Manifest{}, fmt.Errorf("manifest must define allowed_abi_versions")
	}

	seen := make(map[string]bool, len(manifest.Artifacts))
	for i, artifact := range manifest.Artifacts {
		ref := fmt.Sprintf("artifacts[%d]", i)
		artifact = normalizeArtifact(artifact)
		if artifact.Language == "" {
			return Manifest{}, fmt.Errorf("%s.language must not be empty", ref)
		}
		if seen[artifact.Language] {
			return Manifest{}, fmt.Errorf("duplicate language entry %q in manifest", artifact.Language)
		}
		seen[artifact.Language] = true
		if artifact.ABIVersion <= 0 {
			return Manifest{}, fmt.Errorf("%s.abi_version must be > 0", ref)
		}
		if artifact.SharedObjectPath == "" || artifact.SharedObjectHash == "" {
			return Manifest{}, fmt.Errorf("%s.so_path and so_sha256 must not be empty", ref)
		}
		manifest.Artifacts[i] = artifact
	}

	return manifest, nil
}

func normalizeArtifact(artifact Artifact) Artifact {
	artifact.Language = strings.TrimSpace(strings.ToLower(artifact.Language))
	artifact.SharedObjectPath = cleanRel(artifact.SharedObjectPath)
	artifact.NodeTypesPath = cleanRel(artifact.NodeTypesPath)
	artifact.SharedObjectHash = strings.TrimSpace(strings.ToLower(artifact.SharedObjectHash))
	artifact.NodeTypesHash = strings.TrimSpace(strings.ToLower(artifact.NodeTypesHash))
	artifact.Source = strings.TrimSpace(artifact.Source)
	artifact.ApprovedDate = strings.TrimSpace(artifact.ApprovedDate)
	return artifact
}

func cleanRel(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}

// Find returns the artifact registered for language.
func (m Manifest) Find(language string) (Artifact, bool) {
	language = strings.ToLower(language)
	for _, artifact := range m.Artifacts {
		if artifact.Language == language {
			return artifact, true
		}
	}
	return Artifact{}, false
}

// Put adds or replaces the artifact for its language.
func (m *Manifest) Put(artifact Artifact) {
	artifact = normalizeArtifact(artifact)
	if artifact.ApprovedDate == "" {
		artifact.ApprovedDate = time.Now().Format("2006-01-02")
	}
	for i, existing := range m.Artifacts {
		if existing.Language == artifact.Language {
			m.Artifacts[i] = artifact
			return
		}
	}
	m.Artifacts = append(m.Artifacts, artifact)
}

// Save writes the manifest as TOML.
func (m Manifest) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(m)
}

// CalculateSHA256 returns the hex SHA-256 of a file's content.
func CalculateSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
