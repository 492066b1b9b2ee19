// Package schema embeds the SQL that creates the tables the site reads and writes.
package schema

import _ "embed"

// Postgres is the idempotent DDL for the Supabase Postgres database.
//
//go:embed postgres.sql
var Postgres string
