package grammar

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// VerificationIssue describes one artifact that failed verification.
type VerificationIssue struct {
	Language     string
	ArtifactKind string
	ArtifactPath string
	ExpectedHash string
	ActualHash   string
	Reason       string
}

func (i VerificationIssue) String() string {
	if i.ArtifactPath == "" {
		return fmt.Sprintf("%s: %s", i.Language, i.Reason)
	}
	return fmt.Sprintf("%s (%s): %s", i.Language, i.ArtifactPath, i.Reason)
}

// VerifyArtifacts checks ABI versions and SHA-256 hashes of every manifest artifact.
func VerifyArtifacts(baseDir string, manifest Manifest) ([]VerificationIssue, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("baseDir must not be empty")
	}

	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("grammar base path is not a directory: %s", baseDir)
	}

	allowed := make(map[int]bool, len(manifest.AllowedABIVersions))
	for _, version := range manifest.AllowedABIVersions {
		allowed[version] = true
	}

	issues := make([]VerificationIssue, 0)
	for _, artifact := range manifest.Artifacts {
		if !allowed[artifact.ABIVersion] {
			issues = append(issues, VerificationIssue{
				Language: artifact.Language,
				Reason:   fmt.Sprintf("unsupported ABI version %d", artifact.ABIVersion),
			})
		}
		issues = append(issues, verifyArtifactHash(baseDir, artifact.Language, "shared-object", artifact.SharedObjectPath, artifact.SharedObjectHash)...)
		if artifact.NodeTypesPath != "" {
			issues = append(issues, verifyArtifactHash(baseDir, artifact.Language, "node-types", artifact.NodeTypesPath, artifact.NodeTypesHash)...)
		}
	}

	sortIssues(issues)
	return issues, nil
}

// VerifyLanguages verifies the artifacts of the given languages only and
// reports languages that are missing from the manifest.
func VerifyLanguages(baseDir string, manifest Manifest, languages []string) ([]VerificationIssue, error) {
	issues, err := VerifyArtifacts(baseDir, manifest)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(languages))
	for _, language := range languages {
		wanted[strings.ToLower(language)] = true
	}

	filtered := make([]VerificationIssue, 0, len(issues))
	for _, issue := range issues {
		if wanted[issue.Language] {
			filtered = append(filtered, issue)
		}
	}
	for language := range wanted {
		if _, ok := manifest.Find(language); !ok {
			filtered = append(filtered, VerificationIssue{
				Language: language,
				Reason:   "language missing from manifest",
			})
		}
	}

	sortIssues(filtered)
	return filtered, nil
}

func sortIssues(issues []VerificationIssue) {
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Language != issues[j].Language {
			return issues[i].Language < issues[j].Language
		}
		if issues[i].ArtifactKind != issues[j].ArtifactKind {
			return issues[i].ArtifactKind < issues[j].ArtifactKind
		}
		if issues[i].ArtifactPath != issues[j].ArtifactPath {
			return issues[i].ArtifactPath < issues[j].ArtifactPath
		}
		return issues[i].Reason < issues[j].Reason
	})
}

func verifyArtifactHash(baseDir, language, kind, relPath, expectedHash string) []VerificationIssue {
	actual, err := CalculateSHA256(filepath.Join(baseDir, relPath))
	if err != nil {
		return []VerificationIssue{{
			Language:     language,
			ArtifactKind: kind,
			ArtifactPath: relPath,
			ExpectedHash: expectedHash,
			ActualHash:   "<missing>",
			Reason:       "artifact missing or unreadable",
		}}
	}
	if actual == expectedHash {
		return nil
	}
	return []VerificationIssue{{
		Language:     language,
		ArtifactKind: kind,
		ArtifactPath: relPath,
		ExpectedHash: expectedHash,
		ActualHash:   actual,
		Reason:       "checksum mismatch",
	}}
}
