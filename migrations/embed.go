// Package migrations embeds the SQL schema migrations into the binary.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

// Load returns the embedded migrations, oldest first.
func Load() ([]database.Migration, error) {
	return database.LoadMigrations(files, ".")
}
