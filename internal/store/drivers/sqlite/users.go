package sqlite

import (
	"context"

	"github.com/filevault/filevault/internal/domain"
)

type usersRepo struct {
	db querier
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, full_name, password_hash, avatar_url, avatar_public_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.FullName, u.PasswordHash, u.AvatarURL, u.AvatarPublicID,
	)
	return mapConflict(err)
}

const userColumns = `id, username, email, full_name, password_hash, avatar_url, avatar_public_id, refresh_token_fp, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) UpdateAccountDetails(ctx context.Context, userID, fullName, email string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET full_name = ?, email = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		fullName, email, userID,
	)
	if err != nil {
		return mapConflict(err)
	}
	return requireAffected(res)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		newHash, userID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) UpdateAvatar(ctx context.Context, userID, url, publicID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET avatar_url = ?, avatar_public_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		url, publicID, userID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) UpdateRefreshFingerprint(ctx context.Context, userID string, fp *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET refresh_token_fp = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		mapStringNull(fp), userID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u  domain.User
		fp = mapStringNull(nil)
	)

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash,
		&u.AvatarURL, &u.AvatarPublicID, &fp, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.RefreshTokenFP = mapNullStringPtr(fp)
	return u, nil
}
