package version

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/adocs/internal/version.Version=v0.3.0".
var Version = "dev"

// Build metadata, also set via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Generator is the product name stamped on every generated page.
const Generator = "ADocS"

// String renders the version line printed by --version.
func String() string {
	return Generator + " " + Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
