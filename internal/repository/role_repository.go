package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/archie-s/card-vault/internal/domain"
)

// RoleRepository defines persistence access for roles and their permission
// assignments. PermissionsForRole doubles as the access engine's permission
// store.
type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	Create(ctx context.Context, role *domain.Role) error
	List(ctx context.Context) ([]domain.Role, error)
	PermissionsForRole(ctx context.Context, role string) ([]string, error)
}

type roleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository returns a Postgres-backed implementation.
func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepository{pool: pool}
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	const query = `SELECT role_id, role_name, COALESCE(description, '') FROM roles WHERE role_name=$1`

	var role domain.Role
	if err := r.pool.QueryRow(ctx, query, name).Scan(&role.ID, &role.Name, &role.Description); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) Create(ctx context.Context, role *domain.Role) error {
	const query = `
        INSERT INTO roles (role_name, description)
        VALUES ($1, $2)
        RETURNING role_id`

	return r.pool.QueryRow(ctx, query, role.Name, role.Description).Scan(&role.ID)
}

func (r *roleRepository) List(ctx context.Context) ([]domain.Role, error) {
	const query = `SELECT role_id, role_name, COALESCE(description, '') FROM roles ORDER BY role_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *roleRepository) PermissionsForRole(ctx context.Context, role string) ([]string, error) {
	const query = `
        SELECT p.permission_name
        FROM permissions p
        JOIN role_permissions rp ON rp.permission_id = p.permission_id
        JOIN roles r ON r.role_id = rp.role_id
        WHERE r.role_name=$1
        ORDER BY p.permission_name`

	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		perms = append(perms, name)
	}
	return perms, rows.Err()
}
