package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/securenotes/apiserver/types"
)

// RoleRepository reads the seeded roles lookup table.
type RoleRepository struct {
	db *sql.DB
}

func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetByName(ctx context.Context, name types.AppRole) (types.Role, error) {
	const query = `SELECT role_id, role_name FROM roles WHERE role_name = $1`
	var role types.Role
	err := r.db.QueryRowContext(ctx, query, string(name)).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Role{}, ErrNotFound
		}
		return types.Role{}, err
	}
	return role, nil
}
