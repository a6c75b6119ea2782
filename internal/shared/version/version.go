package version

// Version is overridden at build time with -ldflags "-X koinlint/internal/shared/version.Version=...".
var Version = "0.1.0"

const Name = "koinlint"
