package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Monzyy/get5-web/internal/game"
	"github.com/Monzyy/get5-web/internal/rcon"
	"github.com/Monzyy/get5-web/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const serverInUseReason = "Server is already in use"

// ReservationService owns the in_use flag on game servers. A server
// carries at most one non-final match; every reservation goes through
// the compare-and-swap in ServerStore.TryReserve so two concurrent
// reservations cannot both win.
type ReservationService struct {
	servers *store.ServerStore
	matches *store.MatchStore
	rcon    Rcon
}

func NewReservationService(servers *store.ServerStore, matches *store.MatchStore, rc Rcon) *ReservationService {
	return &ReservationService{servers: servers, matches: matches, rcon: rc}
}

// CheckAvailability verifies no non-final match is bound to the server,
// then probes it. Failures come back as *AvailabilityError with a
// distinct reason per failure mode.
func (s *ReservationService) CheckAvailability(ctx context.Context, server *game.GameServer) (*rcon.AvailabilityReply, error) {
	active, err := s.matches.ActiveMatchOnServer(ctx, server.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check server matches: %w", err)
	}
	if active != nil {
		return nil, &AvailabilityError{Reason: serverInUseReason}
	}

	reply, reason := s.rcon.CheckAvailability(ctx, server.Addr(), server.RconPassword)
	if reply == nil {
		return nil, &AvailabilityError{Reason: reason}
	}
	return reply, nil
}

// Reserve flips in_use within tx and binds the server to the match. A
// lost compare-and-swap means another caller reserved the server between
// the availability check and this write.
func (s *ReservationService) Reserve(ctx context.Context, tx *sqlx.Tx, serverID, matchID uuid.UUID) error {
	won, err := s.servers.TryReserve(ctx, tx, serverID)
	if err != nil {
		return fmt.Errorf("failed to reserve server: %w", err)
	}
	if !won {
		return &AvailabilityError{Reason: serverInUseReason}
	}
	return s.matches.BindServerTx(ctx, tx, matchID, serverID)
}

// Release tells the server to end any running match and clears in_use.
// The RCON call is best effort; a dead server must not leak its
// reservation.
func (s *ReservationService) Release(ctx context.Context, server *game.GameServer) error {
	if _, err := s.rcon.Exec(ctx, server.Addr(), server.RconPassword, "get5_endmatch"); err != nil {
		slog.Warn("could not send endmatch on release", "server", server.Addr(), "error", err)
	}
	return s.servers.Release(ctx, server.ID)
}
