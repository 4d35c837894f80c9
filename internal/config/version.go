package config

// Set at build time with -ldflags "-X imgproc.szuro.net/internal/config.Version=...".
var (
	Version, Commit, BuildDate string
)
