package store

import (
	"context"

	"github.com/Monzyy/get5-web/internal/game"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ServerStore struct {
	db *sqlx.DB
}

const (
	getServerQuery      = "SELECT * FROM game_servers WHERE id = ?"
	listServersForQuery = `
		SELECT * FROM game_servers
		WHERE public_server = 1 OR user_id = ?
		ORDER BY created_at ASC
	`
	createServerQuery = `
		INSERT INTO game_servers (id, user_id, display_name, ip_string, port, rcon_password, public_server)
		VALUES (:id, :user_id, :display_name, :ip_string, :port, :rcon_password, :public_server)
	`
	updateServerQuery = `
		UPDATE game_servers SET
			display_name = :display_name,
			ip_string = :ip_string,
			port = :port,
			rcon_password = :rcon_password,
			public_server = :public_server
		WHERE id = :id
	`
	deleteServerQuery = "DELETE FROM game_servers WHERE id = ?"

	// Compare-and-swap: reserving an already-reserved server affects
	// zero rows.
	reserveServerQuery = "UPDATE game_servers SET in_use = 1 WHERE id = ? AND in_use = 0"
	releaseServerQuery = "UPDATE game_servers SET in_use = 0 WHERE id = ?"
)

func NewServerStore(db *sqlx.DB) *ServerStore {
	return &ServerStore{db: db}
}

func (s *ServerStore) GetServer(ctx context.Context, id uuid.UUID) (*game.GameServer, error) {
	var server game.GameServer
	err := s.db.GetContext(ctx, &server, getServerQuery, id)
	if err != nil {
		return nil, err
	}
	return &server, nil
}

func (s *ServerStore) ListServersFor(ctx context.Context, userID uuid.UUID) ([]game.GameServer, error) {
	var servers []game.GameServer
	err := s.db.SelectContext(ctx, &servers, listServersForQuery, userID)
	return servers, err
}

func (s *ServerStore) CreateServer(ctx context.Context, server *game.GameServer) error {
	_, err := s.db.NamedExecContext(ctx, createServerQuery, server)
	return err
}

func (s *ServerStore) UpdateServer(ctx context.Context, server *game.GameServer) error {
	_, err := s.db.NamedExecContext(ctx, updateServerQuery, server)
	return err
}

func (s *ServerStore) DeleteServer(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, deleteServerQuery, id)
	return err
}

// TryReserve flips in_use within tx and reports whether this caller won
// the flag.
func (s *ServerStore) TryReserve(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (bool, error) {
	res, err := tx.ExecContext(ctx, reserveServerQuery, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Release clears in_use unconditionally; releasing an idle server is a
// no-op.
func (s *ServerStore) Release(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, releaseServerQuery, id)
	return err
}

func (s *ServerStore) ReleaseTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, releaseServerQuery, id)
	return err
}
