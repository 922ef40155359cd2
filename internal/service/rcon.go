package service

import (
	"context"

	"github.com/Monzyy/get5-web/internal/rcon"
)

// Rcon is the slice of the RCON client the services depend on.
type Rcon interface {
	Exec(ctx context.Context, addr, password, command string) (string, error)
	CheckAvailability(ctx context.Context, addr, password string) (*rcon.AvailabilityReply, string)
}

// MockRcon satisfies Rcon without touching the network. Wired in when
// MOCK_RCON is set, and used by tests.
type MockRcon struct{}

func (MockRcon) Exec(ctx context.Context, addr, password, command string) (string, error) {
	return "", nil
}

func (MockRcon) CheckAvailability(ctx context.Context, addr, password string) (*rcon.AvailabilityReply, string) {
	return &rcon.AvailabilityReply{GameState: 0, PluginVersion: "unknown"}, ""
}
