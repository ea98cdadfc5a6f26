package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vrsandeep/gitpm/internal/models"
)

// ListInstalledPackages returns every installed package ordered by name.
func (s *Store) ListInstalledPackages() ([]models.InstalledPackage, error) {
	rows, err := s.db.Query(`
		SELECT id, name, version, source, installed_at
		FROM installed_packages
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packages []models.InstalledPackage
	for rows.Next() {
		var p models.InstalledPackage
		if err := rows.Scan(&p.ID, &p.Name, &p.Version, &p.Source, &p.InstalledAt); err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}
	return packages, rows.Err()
}

// GetInstalledPackage returns the installed package with the given name.
func (s *Store) GetInstalledPackage(name string) (*models.InstalledPackage, error) {
	var p models.InstalledPackage
	err := s.db.QueryRow(`
		SELECT id, name, version, source, installed_at
		FROM installed_packages
		WHERE name = ?
	`, name).Scan(&p.ID, &p.Name, &p.Version, &p.Source, &p.InstalledAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ApplyPackageChanges removes the named packages and upserts the given
// records in one transaction. Removing a name that is not installed is an
// error and nothing is applied.
func (s *Store) ApplyPackageChanges(add []models.InstalledPackage, remove []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, name := range remove {
		res, err := tx.Exec("DELETE FROM installed_packages WHERE name = ?", name)
		if err != nil {
			return fmt.Errorf("failed to remove package %s: %w", name, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("package %s is not installed", name)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO installed_packages (id, name, version, source, installed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			id = excluded.id,
			version = excluded.version,
			source = excluded.source,
			installed_at = excluded.installed_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range add {
		installedAt := p.InstalledAt
		if installedAt.IsZero() {
			installedAt = now
		}
		if _, err := stmt.Exec(p.ID, p.Name, p.Version, p.Source, installedAt); err != nil {
			return fmt.Errorf("failed to install package %s: %w", p.Name, err)
		}
	}

	return tx.Commit()
}

// IsPackageInstalled reports whether a package with the given name exists.
func (s *Store) IsPackageInstalled(name string) (bool, error) {
	_, err := s.GetInstalledPackage(name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
