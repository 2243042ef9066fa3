package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/archie-s/card-vault/internal/domain"
)

// UserRepository defines persistence access for users and customer profiles.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	CreateCustomer(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetCustomerByUserID(ctx context.Context, userID string) (*domain.Customer, error)
	TouchLastLogin(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `
        u.user_id, u.username, u.email, u.password_hash, u.role_id, r.role_name,
        u.last_login, u.created_at, u.updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.RoleID,
		&user.RoleName,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (user_id, username, email, password_hash, role_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.RoleID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	const query = `
        INSERT INTO customers (customer_id, user_id, email, first_name, last_name, phone)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		customer.ID,
		customer.UserID,
		customer.Email,
		customer.FirstName,
		customer.LastName,
		customer.Phone,
	).Scan(&customer.CreatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users u JOIN roles r ON r.role_id = u.role_id
        WHERE u.user_id=$1`

	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users u JOIN roles r ON r.role_id = u.role_id
        WHERE u.username=$1`

	return scanUser(r.pool.QueryRow(ctx, query, username))
}

func (r *userRepository) GetCustomerByUserID(ctx context.Context, userID string) (*domain.Customer, error) {
	const query = `
        SELECT customer_id, user_id, email, first_name, last_name, phone, created_at
        FROM customers WHERE user_id=$1`

	var customer domain.Customer
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&customer.ID,
		&customer.UserID,
		&customer.Email,
		&customer.FirstName,
		&customer.LastName,
		&customer.Phone,
		&customer.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id string) error {
	const query = `UPDATE users SET last_login=NOW(), updated_at=NOW() WHERE user_id=$1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users u JOIN roles r ON r.role_id = u.role_id
        ORDER BY u.created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}
