// Package database provides the SQLite connection used for Tilt sightings.
//
// This package manages:
//   - Opening the database file with WAL mode and a busy timeout
//   - Versioned schema migrations loaded from any fs.FS
//
// Usage:
//
//	db, err := database.Open(database.FromConfig(cfg.Database))
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	all, err := migrations.Load()
//	if err != nil {
//	    return err
//	}
//	if err := db.Migrate(ctx, all); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns must be nullable or carry a
// default, and every .up.sql has a matching .down.sql.
package database
