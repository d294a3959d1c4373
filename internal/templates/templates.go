// Package templates holds the embedded HTML views.
package templates

import "embed"

//go:embed *.html
var FS embed.FS
