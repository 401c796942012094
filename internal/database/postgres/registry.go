package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/caregiver-faces/internal/database"
	"github.com/kozaktomas/caregiver-faces/internal/facematch"
)

// RegistryRepository provides PostgreSQL storage for one namespace of the
// face gallery and its role sets.
type RegistryRepository struct {
	pool      *Pool
	namespace string
}

var _ database.Store = (*RegistryRepository)(nil)

// NewRegistryRepository creates a repository bound to namespace.
func NewRegistryRepository(pool *Pool, namespace string) *RegistryRepository {
	if namespace == "" {
		namespace = database.DefaultNamespace
	}
	return &RegistryRepository{pool: pool, namespace: namespace}
}

// LoadFaces reads every embedding of the namespace.
func (r *RegistryRepository) LoadFaces(ctx context.Context) (map[string]facematch.Vector, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT name, embedding FROM face_embeddings WHERE namespace = $1
	`, r.namespace)
	if err != nil {
		return nil, fmt.Errorf("query faces: %w", err)
	}
	defer rows.Close()

	faces := make(map[string]facematch.Vector)
	for rows.Next() {
		var name string
		var vec pgvector.Vector
		if err := rows.Scan(&name, &vec); err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}
		faces[name] = vec.Slice()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faces: %w", err)
	}
	return faces, nil
}

// SaveFaces rewrites the namespace inside one transaction.
func (r *RegistryRepository) SaveFaces(ctx context.Context, faces map[string]facematch.Vector) error {
	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM face_embeddings WHERE namespace = $1`, r.namespace); err != nil {
		return fmt.Errorf("clear faces: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO face_embeddings (namespace, name, embedding, dim)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range facematch.SortedEntries(faces) {
		vec := pgvector.NewVector(e.Embedding)
		if _, err := stmt.ExecContext(ctx, r.namespace, e.Name, vec, len(e.Embedding)); err != nil {
			return fmt.Errorf("insert face %q: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit faces: %w", err)
	}
	return nil
}

// LoadRole returns the members of a role set in ascending order.
func (r *RegistryRepository) LoadRole(ctx context.Context, set database.RoleSet) ([]string, error) {
	if _, err := set.Key(); err != nil {
		return nil, err
	}

	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT name FROM role_members
		WHERE namespace = $1 AND role_set = $2
		ORDER BY name
	`, r.namespace, string(set))
	if err != nil {
		return nil, fmt.Errorf("query role %s: %w", set, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan role member: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role members: %w", err)
	}
	return names, nil
}

// SaveRole rewrites a role set inside one transaction.
func (r *RegistryRepository) SaveRole(ctx context.Context, set database.RoleSet, names []string) error {
	if _, err := set.Key(); err != nil {
		return err
	}

	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM role_members WHERE namespace = $1 AND role_set = $2
	`, r.namespace, string(set)); err != nil {
		return fmt.Errorf("clear role %s: %w", set, err)
	}

	for _, name := range names {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO role_members (namespace, role_set, name) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, r.namespace, string(set), name); err != nil {
			return fmt.Errorf("insert role member %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit role %s: %w", set, err)
	}
	return nil
}

// Close closes the connection pool.
func (r *RegistryRepository) Close() error {
	return r.pool.Close()
}
