package realtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"notification-hub/internal/domain"
)

var ErrUnauthenticated = errors.New("invalid or missing access token")

type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (uuid.UUID, error)
}

type MembershipLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CompanyUser, error)
}

// Hub turns an access token into a subscribed connection.
type Hub struct {
	verifier    TokenVerifier
	memberships MembershipLister
	registry    *Registry
	bufferSize  int
}

func NewHub(verifier TokenVerifier, memberships MembershipLister, registry *Registry, bufferSize int) *Hub {
	return &Hub{
		verifier:    verifier,
		memberships: memberships,
		registry:    registry,
		bufferSize:  bufferSize,
	}
}

// Authenticate returns an Authenticated connection, or a Closed one together
// with an error when the token is rejected.
func (h *Hub) Authenticate(ctx context.Context, token string) (*Conn, error) {
	conn := NewConn(h.bufferSize)

	if token == "" {
		conn.Close()
		return conn, ErrUnauthenticated
	}

	userID, err := h.verifier.VerifyAccessToken(ctx, token)
	if err != nil {
		conn.Close()
		return conn, ErrUnauthenticated
	}

	memberships, err := h.memberships.ListByUser(ctx, userID)
	if err != nil {
		conn.Close()
		return conn, fmt.Errorf("failed to load memberships: %w", err)
	}

	var managed []uuid.UUID
	for _, m := range memberships {
		if m.Role == domain.RoleManager {
			managed = append(managed, m.CompanyID)
		}
	}

	if !conn.Authenticate(userID, managed) {
		conn.Close()
		return conn, ErrUnauthenticated
	}
	return conn, nil
}

// Open authenticates and subscribes in one step.
func (h *Hub) Open(ctx context.Context, token string) (*Conn, error) {
	conn, err := h.Authenticate(ctx, token)
	if err != nil {
		return conn, err
	}
	if err := h.registry.Attach(conn); err != nil {
		conn.Close()
		return conn, err
	}
	return conn, nil
}

func (h *Hub) Close(conn *Conn) {
	h.registry.Remove(conn)
}
