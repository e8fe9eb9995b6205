// Package urls provides centralized constants for all documentation URLs used
// throughout the application.
//
// This package was created to enable URL updates without hunting through code.
// All documentation URLs are defined here as exported constants and can be
// updated in a single location before release.
//
// Usage:
//
//	import "github.com/muurk/go2n/internal/urls"
//
//	fmt.Printf("For more information, see: %s\n", urls.HTTPAPIManual)
package urls
