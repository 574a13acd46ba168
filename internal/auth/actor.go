package auth

import (
	"errors"
	"net/http"

	"ms-pos/internal/models"
)

// The gateway in front of this service authenticates staff and forwards
// the resolved identity in headers. The core only consumes it.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

var ErrMissingActor = errors.New("missing actor identity")

// ActorFromRequest extracts the authenticated actor forwarded by the
// gateway. The role defaults to waiter when the header is absent.
func ActorFromRequest(r *http.Request) (models.Actor, error) {
	id := r.Header.Get(HeaderActorID)
	if id == "" {
		return models.Actor{}, ErrMissingActor
	}

	role := r.Header.Get(HeaderActorRole)
	if role == "" {
		role = models.RoleWaiter
	}

	return models.Actor{ID: id, Role: role}, nil
}
