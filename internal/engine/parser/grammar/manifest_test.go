package grammar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	hash, err := CalculateSHA256(path)
	require.NoError(t, err)
	return hash
}

func TestLoadManifestValidation(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing version",
			content: "allowed_abi_versions = [14]\n",
			wantErr: "version",
		},
		{
			name:    "missing abi list",
			content: "version = 1\n",
			wantErr: "allowed_abi_versions",
		},
		{
			name: "duplicate language",
			content: `version = 1
allowed_abi_versions = [14]
[[artifacts]]
language = "kotlin"
abi_version = 14
so_path = "a.so"
so_sha256 = "aa"
[[artifacts]]
language = "Kotlin"
abi_version = 14
so_path = "b.so"
so_sha256 = "bb"
`,
			wantErr: "duplicate language",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "manifest.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadManifest(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVerifyLanguages(t *testing.T) {
	dir := t.TempDir()
	soHash := writeArtifact(t, dir, "kotlin/kotlin.so", "binary")

	manifest := Manifest{Version: 1, AllowedABIVersions: []int{14}}
	manifest.Put(Artifact{Language: "Kotlin", ABIVersion: 14, SharedObjectPath: "kotlin/kotlin.so", SharedObjectHash: soHash})
	require.NoError(t, manifest.Save(filepath.Join(dir, ManifestFile)))

	loaded, err := LoadManifest(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	artifact, ok := loaded.Find("kotlin")
	require.True(t, ok)
	assert.NotEmpty(t, artifact.ApprovedDate)

	issues, err := VerifyLanguages(dir, loaded, []string{"kotlin"})
	require.NoError(t, err)
	assert.Empty(t, issues)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "kotlin/kotlin.so"), []byte("tampered"), 0o644))
	issues, err = VerifyLanguages(dir, loaded, []string{"kotlin", "swift"})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "checksum mismatch", issues[0].Reason)
	assert.Equal(t, "swift", issues[1].Language)
	assert.Equal(t, "language missing from manifest", issues[1].Reason)
}

func TestVerifyArtifactsRejectsUnknownABI(t *testing.T) {
	dir := t.TempDir()
	soHash := writeArtifact(t, dir, "k.so", "x")
	manifest := Manifest{
		Version:            1,
		AllowedABIVersions: []int{14},
		Artifacts:          []Artifact{{Language: "kotlin", ABIVersion: 13, SharedObjectPath: "k.so", SharedObjectHash: soHash}},
	}

	issues, err := VerifyArtifacts(dir, manifest)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].String(), "unsupported ABI version 13")
}
