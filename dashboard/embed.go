// Package dashboard provides the embedded landing page for solarboard.
//
// The page is compiled into the binary so the service can run without
// external asset files. A static directory configured at runtime takes
// precedence over it.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the landing page.
//
//	assets/
//	  index.html    - dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
