// Package migrations embeds the SQL schema so cmd/migrate can run without a checkout.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
