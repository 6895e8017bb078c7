package sqlstore

import (
	"context"
	_ "embed"
	"fmt"
	"os"
)

// bootstrapSchema creates the hospital tables the assistant ships with.
const bootstrapSchema = `
CREATE TABLE IF NOT EXISTS patients (id INTEGER PRIMARY KEY, name TEXT, dob TEXT);
CREATE TABLE IF NOT EXISTS appointments (id INTEGER PRIMARY KEY, patient_id INTEGER, date TEXT, doctor_name TEXT);
CREATE TABLE IF NOT EXISTS bills (id INTEGER PRIMARY KEY, patient_id INTEGER, amount REAL, status TEXT);
`

//go:embed seed.sql
var defaultSeed string

// Bootstrap creates the default tables if they do not exist yet.
func (s *Store) Bootstrap(ctx context.Context) error {
	if err := s.ExecScript(ctx, bootstrapSchema); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}

// Seed runs the SQL file at path, or the bundled sample data when path is empty.
func (s *Store) Seed(ctx context.Context, path string) error {
	script := defaultSeed
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read seed file: %w", err)
		}
		script = string(data)
	}
	if err := s.ExecScript(ctx, script); err != nil {
		return fmt.Errorf("seed database: %w", err)
	}
	return nil
}
