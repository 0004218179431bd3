// Package migrations holds the evaluation_history schema for the history mirrors.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// PostgresFS embeds the evaluation_history schema for Postgres.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the evaluation_history schema for ClickHouse.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

// migration is one embedded schema file.
type migration struct {
	Version string // file name without extension, e.g. "001_evaluation_history"
	SQL     string
}

// readMigrations returns the non-empty .sql files of dir ordered by version.
func readMigrations(fsys fs.FS, dir string) ([]migration, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("list %s migrations: %w", dir, err)
	}
	sort.Strings(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		sql := strings.TrimSpace(string(data))
		if sql == "" {
			continue
		}
		out = append(out, migration{
			Version: strings.TrimSuffix(path.Base(name), ".sql"),
			SQL:     sql,
		})
	}
	return out, nil
}
