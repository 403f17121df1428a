package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/phu-boop/ev-dealer-platform/internal/auth"
)

// SQLiteStore keeps the session in the local database so that it survives
// between console invocations.
type SQLiteStore struct {
	DB  *sqlx.DB
	now func() time.Time
}

func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{DB: db, now: time.Now}
}

func (s *SQLiteStore) Load(ctx context.Context) (*auth.Session, error) {
	var sess auth.Session
	err := s.DB.GetContext(ctx, &sess, `
        SELECT access_token, refresh_token, user_id, role, dealer_id
        FROM sessions WHERE id = 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (s *SQLiteStore) Save(ctx context.Context, sess *auth.Session) error {
	_, err := s.DB.ExecContext(ctx, `
        INSERT INTO sessions (id, access_token, refresh_token, user_id, role, dealer_id, updated_at)
        VALUES (1, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            access_token = excluded.access_token,
            refresh_token = excluded.refresh_token,
            user_id = excluded.user_id,
            role = excluded.role,
            dealer_id = excluded.dealer_id,
            updated_at = excluded.updated_at`,
		sess.AccessToken, sess.RefreshToken, sess.UserID, sess.Role, sess.DealerID, s.now().Unix())
	return err
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM sessions`)
	return err
}
