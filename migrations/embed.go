// Package migrations embeds the crewd SQL migration files so they can be
// applied by the goose programmatic API at server boot and in tests.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time: the crews and
// members tables plus the member-change notify trigger. Pass this to a goose
// provider instead of relying on a filesystem path at runtime.
//
//go:embed *.sql
var FS embed.FS
