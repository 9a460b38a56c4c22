package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/service-marketplace-api/internal/model"
)

// UserRepo provides access to the `auth` and `user_profile` tables. The two
// tables are 1:1 and both rows are written at registration.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// CreateAccount inserts an auth row and returns its ID. The password must
// already be hashed by the caller.
func (r *UserRepo) CreateAccount(ctx context.Context, username, passwordHash, role string) (uint64, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO auth (username, password, role, access_token, refresh_token) VALUES (?,?,?,'','')",
		username, passwordHash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches an account by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	var a model.Account
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password,role,access_token,refresh_token,created_at,updated_at FROM auth WHERE username=? LIMIT 1",
		username).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.AccessToken, &a.RefreshToken, &a.CreatedAt, &a.UpdatedAt)
	return a, notFound(err)
}

// GetByID fetches an account by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	var a model.Account
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password,role,access_token,refresh_token,created_at,updated_at FROM auth WHERE id=? LIMIT 1",
		id).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.AccessToken, &a.RefreshToken, &a.CreatedAt, &a.UpdatedAt)
	return a, notFound(err)
}

// UpdateTokens stores a newly issued token pair as the account's only valid
// pair. Writing empty strings (logout) leaves the account with no usable
// tokens at all, regardless of signature validity.
func (r *UserRepo) UpdateTokens(ctx context.Context, id uint64, access, refresh string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE auth SET access_token=?, refresh_token=?, updated_at=NOW() WHERE id=?",
		access, refresh, id)
	return err
}

// CreateProfile inserts the user_profile row belonging to an account.
func (r *UserRepo) CreateProfile(ctx context.Context, p *model.Profile) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO user_profile (user_id, name, email, phone, age, gender, address, latitude, longitude)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		p.UserID, p.Name, p.Email, p.Phone, p.Age, p.Gender, p.Address, p.Latitude, p.Longitude)
	return err
}

// GetProfileByUserID fetches the profile belonging to an account.
func (r *UserRepo) GetProfileByUserID(ctx context.Context, userID uint64) (model.Profile, error) {
	var p model.Profile
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id,name,email,phone,age,gender,address,latitude,longitude FROM user_profile WHERE user_id=? LIMIT 1",
		userID).Scan(&p.UserID, &p.Name, &p.Email, &p.Phone, &p.Age, &p.Gender, &p.Address, &p.Latitude, &p.Longitude)
	return p, notFound(err)
}

// ListProfilesByRole returns the profile directory for every account with
// the given role (all providers, all consumers). Rows come back in id order.
func (r *UserRepo) ListProfilesByRole(ctx context.Context, role string) ([]model.Profile, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT p.user_id, p.name, p.email, p.phone, p.age, p.gender, p.address, p.latitude, p.longitude
		 FROM auth a
		 JOIN user_profile p ON p.user_id = a.id
		 WHERE a.role = ?
		 ORDER BY p.user_id`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Profile, 0)
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.UserID, &p.Name, &p.Email, &p.Phone, &p.Age, &p.Gender, &p.Address, &p.Latitude, &p.Longitude); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
