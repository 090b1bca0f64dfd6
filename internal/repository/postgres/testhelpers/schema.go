package testhelpers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Migrate применяет *.up.sql из каталога в лексикографическом порядке
func (tdb *TestDB) Migrate(ctx context.Context, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations in %s", dir)
	}
	sort.Strings(files)

	for _, path := range files {
		if err := tdb.execFile(ctx, path); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
		tdb.t.Logf("applied migration %s", filepath.Base(path))
	}
	return nil
}

// Seed загружает SQL-фикстуры из dir
func (tdb *TestDB) Seed(ctx context.Context, dir string, files ...string) error {
	for _, name := range files {
		if err := tdb.execFile(ctx, filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("load fixture: %w", err)
		}
	}
	return nil
}

func (tdb *TestDB) execFile(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := tdb.DB.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
