// Package database provides SQLite connectivity for the evidence and
// profile store.
//
// It manages the connection (WAL mode, busy timeout, single writer) and
// applies the embedded schema migrations from the migrations package.
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are additive. Every change ships an .up.sql and a .down.sql.
package database
