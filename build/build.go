package build

// Set via -ldflags '-X candle/build.Version=... -X candle/build.Date=...'.
var (
	Version = "dev"
	Date    = "unknown"
)
