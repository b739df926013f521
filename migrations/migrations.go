// Package migrations embeds the SQL schema of the products table so that the
// service binary and the integration tests apply the same files.
package migrations

import "embed"

// FS holds the golang-migrate compatible *.up.sql / *.down.sql files.
//
//go:embed *.sql
var FS embed.FS
