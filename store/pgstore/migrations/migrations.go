// Package migrations embeds the Postgres schema, applied in filename order
// by tern when the store starts.
package migrations

import (
	"embed"
	"io/fs"
)

var FS = &migratorFS{fsys: sqlFiles}

//go:embed *.sql
var sqlFiles embed.FS

// migratorFS adapts an fs.FS to tern's MigratorFS.
type migratorFS struct{ fsys fs.FS }

func (m *migratorFS) ReadDir(dirname string) ([]fs.FileInfo, error) {
	entries, err := fs.ReadDir(m.fsys, dirname)
	if err != nil {
		return nil, err
	}
	infos := make([]fs.FileInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (m *migratorFS) ReadFile(filename string) ([]byte, error) {
	return fs.ReadFile(m.fsys, filename)
}

func (m *migratorFS) Glob(pattern string) ([]string, error) {
	return fs.Glob(m.fsys, pattern)
}
