// Package decisiongo provides the version information for decision-go.
package decisiongo

// Version is the current version of decision-go.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
