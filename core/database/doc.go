// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to configure MySQL or SQLite connections based on
// the application's configuration. SQL tables are one of the sources a merge can read
// cluster assignments from and write merged ids to.
//
// # Connect
//
// Connect opens the configured driver, applies pool limits and pings the database
// within the configured timeout.
//
// # Schema Inspection
//
// GetTableColumns lists a table's columns (SHOW COLUMNS on MySQL, PRAGMA table_info on
// SQLite). MissingColumns uses it to reject merges that reference columns the table
// does not have before any rows are read.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "assignments", []string{"address", "id_1"})
package database
