// Package std embeds the standard library and bootstrap source shipped with
// the tardi binary itself, so a build needs no external data directory to
// run anything beyond what a user script actually uses: (internal/env
// resolves std/* module names against $TARDI_DATA_DIR first when it is set,
// then against this tree; the current directory is never consulted for
// them).
package std

import "embed"

//go:embed bootstrap vectors hashmaps strings io fs scanning
var FS embed.FS
