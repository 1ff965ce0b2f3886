package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/users"
)

// Identify resolves a user id into the caller it may act as. Unknown and
// deactivated users are denied.
func (s *Service) Identify(ctx context.Context, userID int64) (users.Caller, error) {
	var out users.Caller
	err := s.read(ctx, func(ctx context.Context, st Store) error {
		u, err := st.GetUser(ctx, userID)
		if errors.Is(err, errs.ErrNotFound) {
			return errs.Denied("unknown user %d", userID)
		}
		if err != nil {
			return err
		}
		if !u.Active {
			return errs.Denied("user %d is deactivated", userID)
		}
		out = users.Caller{UserID: u.ID, Role: u.Role}
		return nil
	})
	return out, err
}

func (s *Service) RegisterUser(ctx context.Context, c users.Caller, cmd RegisterUser) (*users.User, error) {
	var out *users.User
	err := s.run(ctx, "register_user", c, func(ctx context.Context) error {
		if err := requireAdmin(c); err != nil {
			return err
		}
		if err := check(cmd); err != nil {
			return err
		}
		return s.inTx(ctx, func(ctx context.Context, u *unit) error {
			usr, err := u.st.UpsertUser(ctx, strings.TrimSpace(cmd.Name), strings.ToLower(cmd.Email), cmd.Role)
			out = usr
			return err
		})
	})
	if err == nil {
		s.log.Info("user registered", "user_id", out.ID, "role", out.Role, "by", c.UserID)
	}
	return out, err
}
