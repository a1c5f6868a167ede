package sqlite

import (
	"context"
	"database/sql"

	"github.com/filevault/filevault/internal/domain"
	"github.com/filevault/filevault/internal/store"
)

type filesRepo struct {
	db querier
}

func (r *filesRepo) CreateFile(ctx context.Context, f domain.File) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO files (id, user_id, name, url, public_id, media_type, size_bytes, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.Details.Name, f.Details.URL, f.Details.PublicID,
		f.Details.Type, f.Details.Size, f.Details.UploadedAt,
	)
	return mapConflict(err)
}

const fileColumns = `id, user_id, name, url, public_id, media_type, size_bytes, uploaded_at, created_at, updated_at`

func (r *filesRepo) GetFileByPublicID(ctx context.Context, publicID string) (domain.File, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE public_id = ?`, publicID)
	return scanFile(row)
}

func (r *filesRepo) UpdateFileName(ctx context.Context, publicID, name string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE files SET name = ?, updated_at = CURRENT_TIMESTAMP
		WHERE public_id = ?`,
		name, publicID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *filesRepo) DeleteFileByPublicID(ctx context.Context, publicID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE public_id = ?`, publicID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *filesRepo) SearchFilesByName(ctx context.Context, userID, pattern string) ([]domain.File, error) {
	// instr keeps substring semantics exact; LIKE would glob on % and _.
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+fileColumns+` FROM files
		WHERE user_id = ? AND instr(lower(name), lower(?)) > 0
		ORDER BY uploaded_at DESC`,
		userID, pattern,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectFiles(rows)
}

func (r *filesRepo) ListFilesByUser(ctx context.Context, userID string) ([]domain.File, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+fileColumns+` FROM files
		WHERE user_id = ?
		ORDER BY uploaded_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectFiles(rows)
}

func scanFile(row rowScanner) (domain.File, error) {
	var f domain.File

	err := row.Scan(
		&f.ID, &f.UserID, &f.Details.Name, &f.Details.URL, &f.Details.PublicID,
		&f.Details.Type, &f.Details.Size, &f.Details.UploadedAt,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return domain.File{}, mapNotFound(err)
	}
	return f, nil
}

type rowsScanner interface {
	rowScanner
	Next() bool
	Err() error
}

func collectFiles(rows rowsScanner) ([]domain.File, error) {
	var files []domain.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
