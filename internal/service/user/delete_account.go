package user

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/pkg/ctxutil"
)

// DeleteAccount removes the caller's account and everything attached to it.
// The caller must re-enter their password first unless the account signs in
// through a provider only.
func (s *Service) DeleteAccount(ctx context.Context, input DeleteAccountInput) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}

	if err := s.reauthenticate(ctx, userID, input.CurrentPassword); err != nil {
		return err
	}

	s.removeUserData(ctx, userID)
	return nil
}

// removeUserData runs the best-effort removal cascade for one account, in a
// fixed phase order: owned listings with their threads, the per-owner index,
// the user's favorites, their messages in other threads, the profile
// document, and finally the credential records. A failing phase is logged
// and skipped so a partial outage never leaves the earlier phases undone.
func (s *Service) removeUserData(ctx context.Context, userID uuid.UUID) {
	log := s.log.With(slog.String("user_id", userID.String()))
	failed := 0

	owned, err := s.ownerIndex.ListByOwner(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "cascade: list owned listings failed", slog.Any("error", err))
		failed++
		owned = nil
	}
	for _, l := range owned {
		if err := s.listings.Delete(ctx, l.FlatID); err != nil {
			log.ErrorContext(ctx, "cascade: delete listing failed",
				slog.String("flat_id", l.FlatID.String()), slog.Any("error", err))
			failed++
		}
		if err := s.threads.DeleteThread(ctx, l.FlatID); err != nil {
			log.ErrorContext(ctx, "cascade: delete thread failed",
				slog.String("flat_id", l.FlatID.String()), slog.Any("error", err))
			failed++
		}
	}

	if err := s.ownerIndex.DeleteAllByOwner(ctx, userID); err != nil {
		log.ErrorContext(ctx, "cascade: delete owner index failed", slog.Any("error", err))
		failed++
	}

	if err := s.favorites.DeleteAllByUser(ctx, userID); err != nil {
		log.ErrorContext(ctx, "cascade: delete favorites failed", slog.Any("error", err))
		failed++
	}

	if err := s.threads.DeleteBySender(ctx, userID); err != nil {
		log.ErrorContext(ctx, "cascade: delete sent messages failed", slog.Any("error", err))
		failed++
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		log.ErrorContext(ctx, "cascade: delete profile failed", slog.Any("error", err))
		failed++
	}

	if err := s.authMethods.DeleteAllByUser(ctx, userID); err != nil {
		log.ErrorContext(ctx, "cascade: delete auth methods failed", slog.Any("error", err))
		failed++
	}
	if err := s.tokens.RevokeAllByUser(ctx, userID); err != nil {
		log.ErrorContext(ctx, "cascade: revoke tokens failed", slog.Any("error", err))
		failed++
	}

	if failed > 0 {
		log.WarnContext(ctx, "account deleted with skipped cascade steps",
			slog.Int("failed_steps", failed))
		return
	}

	log.InfoContext(ctx, "account deleted")
}
