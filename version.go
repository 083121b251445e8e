package railchat

import _ "embed"

// Version is the released version of railchat.
//
//go:embed VERSION
var Version string
