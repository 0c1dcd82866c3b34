// Package web embebe la página del overlay para OBS.
package web

import _ "embed"

//go:embed index.html
var OverlayPage []byte
