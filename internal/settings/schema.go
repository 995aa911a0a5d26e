package settings

import (
	_ "embed"
)

//go:embed schema/settings.cue
var settingsSchemaCUE []byte
