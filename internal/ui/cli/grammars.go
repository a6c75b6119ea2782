package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"koinlint/internal/core/config"
	"koinlint/internal/engine/parser/grammar"
)

func installGrammar(w io.Writer, grammarsDir, repoURL string) int {
	if repoURL == "" {
		repoURL = grammar.DefaultKotlinRepository
	}
	fmt.Fprintf(w, "Building kotlin grammar from %s...\n", repoURL)

	artifact, err := grammar.Install(context.Background(), grammarsDir, repoURL, w)
	if err != nil {
		fmt.Fprintf(w, "Build failed: %v\n", err)
		return exitFailure
	}
	fmt.Fprintf(w, "Grammar installed: %s (abi %d)\n", filepath.Join(grammarsDir, artifact.SharedObjectPath), artifact.ABIVersion)
	return exitOK
}

func verifyGrammars(w io.Writer, cfg *config.Config, grammarsDir string) int {
	if !cfg.GrammarVerification.IsEnabled() {
		fmt.Fprintln(w, "Grammar verification is disabled in config (grammar_verification.enabled=false); no checks were run.")
		return exitOK
	}

	manifestPath := filepath.Join(grammarsDir, grammar.ManifestFile)
	if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
		fmt.Fprintf(w, "No grammar manifest at %s; the built-in parser is used.\n", manifestPath)
		return exitOK
	}
	manifest, err := grammar.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(w, "Invalid grammar manifest: %v\n", err)
		return exitFailure
	}
	issues, err := grammar.VerifyArtifacts(grammarsDir, manifest)
	if err != nil {
		fmt.Fprintf(w, "Grammar verification failed: %v\n", err)
		return exitFailure
	}
	if len(issues) == 0 {
		fmt.Fprintln(w, "Grammar verification passed: all artifacts match manifest checksums and allowed ABI versions.")
		return exitOK
	}
	for _, issue := range issues {
		fmt.Fprintln(w, issue.String())
	}
	fmt.Fprintf(w, "Grammar verification failed: %d issues detected.\n", len(issues))
	return exitFailure
}
