// Package databases embeds the sample databases seeded on first run.
package databases

import "embed"

//go:embed music
var Content embed.FS
