// Package auth decides which authenticated users may invoke which workflow actions.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	pkgauth "github.com/ojtetr/tracker/internal/pkg/auth"
)

// Requirement is the set of roles allowed to invoke an action.
// The zero value admits any authenticated, active user.
type Requirement struct {
	roles []models.Role
}

// Require builds a requirement admitting exactly the given roles
func Require(roles ...models.Role) Requirement {
	return Requirement{roles: append([]models.Role(nil), roles...)}
}

// AnyRole admits every authenticated, active user
func AnyRole() Requirement {
	return Requirement{}
}

// Allows reports whether role satisfies the requirement
func (r Requirement) Allows(role models.Role) bool {
	if len(r.roles) == 0 {
		return role.IsValid()
	}
	for _, allowed := range r.roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Actor is an authorized caller
type Actor struct {
	User *models.User
	// ProfileID is set for students only
	ProfileID int64
}

// ID returns the actor's user id
func (a *Actor) ID() int64 { return a.User.ID }

// Role returns the actor's role
func (a *Actor) Role() models.Role { return a.User.Role }

// TokenValidator turns a credential into claims
type TokenValidator interface {
	ValidateAndExtractClaims(token string) (*pkgauth.Claims, error)
}

// UserFinder loads the account a token points at
type UserFinder interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// ProfileFinder resolves the profile linked to a student account
type ProfileFinder interface {
	GetProfileIDByUserID(ctx context.Context, userID int64) (int64, error)
}

// Gate authorizes requests. It only reads.
type Gate struct {
	tokens   TokenValidator
	users    UserFinder
	profiles ProfileFinder
}

// NewGate creates a new Gate
func NewGate(tokens TokenValidator, users UserFinder, profiles ProfileFinder) *Gate {
	return &Gate{tokens: tokens, users: users, profiles: profiles}
}

// Authorize resolves the credential to an actor and checks it against the requirement.
// Errors wrap apperrors.ErrUnauthenticated, apperrors.ErrUserNotFound or apperrors.ErrPermissionDenied.
func (g *Gate) Authorize(ctx context.Context, token string, req Requirement) (*Actor, error) {
	if token == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	claims, err := g.tokens.ValidateAndExtractClaims(token)
	if err != nil {
		return nil, errors.Join(apperrors.ErrUnauthenticated, err)
	}

	user, err := g.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", claims.UserID, err)
	}

	if !user.IsActive() {
		return nil, apperrors.NewCustomError(apperrors.ErrPermissionDenied, "account is not active")
	}

	// The stored role is authoritative; a token minted before a role change must not widen access
	if !req.Allows(user.Role) {
		return nil, apperrors.NewForbiddenError("access denied")
	}

	actor := &Actor{User: user}
	if user.Role == models.RoleStudent {
		profileID, err := g.profiles.GetProfileIDByUserID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve profile for user %d: %w", user.ID, err)
		}
		actor.ProfileID = profileID
	}

	return actor, nil
}
