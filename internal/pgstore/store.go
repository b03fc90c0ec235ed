package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediminder/internal/common"
	"github.com/dmitrijs2005/mediminder/internal/dbx"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	FullName     string
	Role         string
}

type Profile struct {
	UserID string
	Name   string
	Email  string
}

// DB is what Store needs from *sql.DB.
type DB interface {
	dbx.DBTX
	dbx.TxStarter
}

type Store struct {
	db DB
}

func New(db DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	query :=
		`INSERT INTO users (email, password_hash, full_name, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`

	err := s.db.QueryRowContext(ctx, query, u.Email, u.PasswordHash, u.FullName, u.Role).Scan(&u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, fmt.Errorf("user %s: %w", u.Email, common.ErrAlreadyExists)
		}
		return User{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (s *Store) userBy(ctx context.Context, column, value string) (User, error) {
	query :=
		`SELECT id, email, password_hash, full_name, role FROM users
		 WHERE ` + column + ` = $1`

	var u User
	err := s.db.QueryRowContext(ctx, query, value).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, common.ErrNotFound
		}
		return User{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	return s.userBy(ctx, "email", email)
}

func (s *Store) UserByID(ctx context.Context, id string) (User, error) {
	return s.userBy(ctx, "id", id)
}

// Records returns the user's collection in stored order.
func (s *Store) Records(ctx context.Context, userID, collection string) ([]json.RawMessage, error) {
	query :=
		`SELECT data FROM records
		 WHERE user_id = $1 AND collection = $2
		 ORDER BY position, id`

	rows, err := s.db.QueryContext(ctx, query, userID, collection)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []json.RawMessage{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// replaceDelete drops rows whose id is absent from the JSON array $3. An
// empty array deletes the whole collection.
const replaceDelete = `DELETE FROM records
	WHERE user_id = $1 AND collection = $2
	  AND NOT (id = ANY(ARRAY(SELECT elem->>'id' FROM jsonb_array_elements($3::jsonb) AS elem)))`

const replaceUpsert = `INSERT INTO records (user_id, collection, id, position, data, updated_at)
	SELECT $1, $2, t.elem->>'id', t.ord - 1, t.elem, now()
	FROM jsonb_array_elements($3::jsonb) WITH ORDINALITY AS t(elem, ord)
	ON CONFLICT (user_id, collection, id)
	DO UPDATE SET position = EXCLUDED.position, data = EXCLUDED.data, updated_at = now()
	WHERE records.position IS DISTINCT FROM EXCLUDED.position OR records.data IS DISTINCT FROM EXCLUDED.data`

// Replace makes the collection equal to items, in order. Every item must be
// a JSON object with a non-empty string id; duplicates keep the first
// occurrence. Both statements run in one transaction.
func (s *Store) Replace(ctx context.Context, userID, collection string, items []json.RawMessage) error {
	items, err := dedupe(items)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, replaceDelete, userID, collection, string(payload)); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if len(items) == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, replaceUpsert, userID, collection, string(payload)); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

func dedupe(items []json.RawMessage) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		var v struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(it, &v); err != nil || v.ID == "" {
			return nil, fmt.Errorf("%w: record %d has no id", common.ErrValidation, i)
		}
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		out = append(out, it)
	}
	return out, nil
}

func (s *Store) DeleteCollection(ctx context.Context, userID, collection string) error {
	query := `DELETE FROM records WHERE user_id = $1 AND collection = $2`
	if _, err := s.db.ExecContext(ctx, query, userID, collection); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *Store) Profile(ctx context.Context, userID string) (Profile, error) {
	query := `SELECT user_id, name, email FROM profiles WHERE user_id = $1`

	var p Profile
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.Name, &p.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, common.ErrNotFound
		}
		return Profile{}, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (s *Store) PutProfile(ctx context.Context, p Profile) error {
	query :=
		`INSERT INTO profiles (user_id, name, email, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, updated_at = now()`

	if _, err := s.db.ExecContext(ctx, query, p.UserID, p.Name, p.Email); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Profiles lists every known user, falling back to account data where no
// profile was saved.
func (s *Store) Profiles(ctx context.Context) ([]Profile, error) {
	query :=
		`SELECT COALESCE(u.id, p.user_id), COALESCE(p.name, u.full_name, ''), COALESCE(NULLIF(p.email, ''), u.email, '')
		 FROM users u FULL OUTER JOIN profiles p ON p.user_id = u.id
		 ORDER BY 1`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []Profile{}
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.UserID, &p.Name, &p.Email); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
