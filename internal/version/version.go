package version

import "fmt"

// Set with -ldflags "-X github.com/noneedrelax/VoiceStream/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Full returns the version line printed by "voicestream version".
func Full() string {
	return fmt.Sprintf("voicestream %s, commit %s, built at %s", Version, Commit, Date)
}
