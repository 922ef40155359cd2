package store

import (
	"context"

	users "github.com/Monzyy/get5-web/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	getUserQuery        = "SELECT * FROM users WHERE id = ?"
	getUserBySteamQuery = "SELECT * FROM users WHERE steam_id = ?"
	createUserQuery     = `
		INSERT INTO users (id, steam_id, name, admin) VALUES
		(:id, :steam_id, :name, :admin)
	`
	updateUserNameQuery = "UPDATE users SET name = :name WHERE id = :id"
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserQuery, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) GetUserBySteamID(ctx context.Context, steamID string) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserBySteamQuery, steamID)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return err
}

func (s *UserStore) UpdateUserName(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, updateUserNameQuery, user)
	return err
}
