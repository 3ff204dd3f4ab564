// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories and DDL bootstrappers with the storage package:
//
//   - "sqlite"   (csv2fts/internal/storage/sqlite)
//   - "postgres" (csv2fts/internal/storage/postgres)
//   - "mysql"    (csv2fts/internal/storage/mysql)
//   - "mssql"    (csv2fts/internal/storage/mssql)
//
// Typical usage (in cmd/csv2fts/main.go):
//
//	import _ "csv2fts/internal/storage/all"
//
// A binary that needs only a subset of backends can import those packages
// directly instead.
package all

import (
	_ "csv2fts/internal/storage/mssql"
	_ "csv2fts/internal/storage/mysql"
	_ "csv2fts/internal/storage/postgres"
	_ "csv2fts/internal/storage/sqlite"
)
