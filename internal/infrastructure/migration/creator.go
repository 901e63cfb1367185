package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const migrationTemplate = `-- Migration: {{.Name}}{{if .Rollback}} (rollback){{end}}
-- Created: {{.Timestamp}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`

// MigrationFile describes a generated up/down pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes the next sequentially numbered up/down pair
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	next, err := nextVersion(migrationsDir)
	if err != nil {
		return nil, err
	}

	version := fmt.Sprintf("%06d", next)
	base := filepath.Join(migrationsDir, version+"_"+slug)
	mf := &MigrationFile{
		Version:     version,
		Name:        slug,
		Description: description,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		UpPath:      base + ".up.sql",
		DownPath:    base + ".down.sql",
	}

	if err := writeMigrationFile(mf.UpPath, mf, false); err != nil {
		return nil, err
	}
	if err := writeMigrationFile(mf.DownPath, mf, true); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

// ListMigrations returns migration base names in version order
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok && !entry.IsDir() {
			names = append(names, base)
		}
	}
	slices.Sort(names)
	return names, nil
}

func nextVersion(migrationsDir string) (int, error) {
	names, err := ListMigrations(migrationsDir)
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, name := range names {
		prefix, _, _ := strings.Cut(name, "_")
		if v, err := strconv.Atoi(prefix); err == nil && v > highest {
			highest = v
		}
	}
	return highest + 1, nil
}

func writeMigrationFile(path string, mf *MigrationFile, rollback bool) error {
	tmpl := template.Must(template.New("migration").Parse(migrationTemplate))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()

	data := struct {
		*MigrationFile
		Rollback bool
	}{mf, rollback}
	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// sanitizeName lowercases name and collapses separators into single underscores
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '_':
			pendingSep = true
		}
	}
	return b.String()
}
