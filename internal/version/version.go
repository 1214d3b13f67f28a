// Package version holds the crawler's identity: product name, release and the
// User-Agent string sent with every request.
package version

import "fmt"

// Name is the product name. It doubles as the robots.txt agent and the job class.
const Name = "Maman"

// DefaultContactURL is advertised in the User-Agent when no contact is configured.
const DefaultContactURL = "https://github.com/JakeFAU/maman"

// Version is overridden at build time with -ldflags "-X".
var Version = "0.13.1"

// String returns "<Name> v<Version>".
func String() string {
	return fmt.Sprintf("%s v%s", Name, Version)
}

// UserAgent returns "<Name> v<Version> (<contact>)".
func UserAgent(contactURL string) string {
	if contactURL == "" {
		contactURL = DefaultContactURL
	}
	return fmt.Sprintf("%s (%s)", String(), contactURL)
}
