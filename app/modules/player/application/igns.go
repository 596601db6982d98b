package playerservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	playeridentity "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/identity"
	playerdb "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
	"github.com/uptrace/bun"
)

// SyncIGNHistory replaces the player's current and past names with what the
// identity service reports. Hidden flags survive for names that are kept.
func (s *PlayerService) SyncIGNHistory(ctx context.Context, id string) (results.OperationResult[*playerdb.Player, error], error) {
	return withTelemetry(s, ctx, "SyncIGNHistory", id, func(ctx context.Context) (results.OperationResult[*playerdb.Player, error], error) {
		if s.identity == nil {
			return results.FailureResult[*playerdb.Player, error](ErrIdentityUnavailable), nil
		}

		player, err := s.repo.GetByID(ctx, s.db, id)
		if err != nil {
			if errors.Is(err, playerdb.ErrNotFound) {
				return results.FailureResult[*playerdb.Player, error](ErrPlayerNotFound), nil
			}
			return results.OperationResult[*playerdb.Player, error]{}, fmt.Errorf("load player: %w", err)
		}
		if player.UUID == "" {
			return results.FailureResult[*playerdb.Player, error](ErrNoUUID), nil
		}

		remote, err := s.identity.ProfileByUUID(ctx, player.UUID)
		if err != nil {
			if errors.Is(err, playeridentity.ErrProfileNotFound) {
				return results.FailureResult[*playerdb.Player, error](ErrPlayerNotFound), nil
			}
			s.logger.ErrorContext(ctx, "Identity lookup failed", attr.PlayerID(id), attr.Error(err))
			return results.FailureResult[*playerdb.Player, error](ErrIdentityUnavailable), nil
		}

		current, past := mergeHistory(player.PastIGNs, remote)
		if current == player.CurrentIGN && samePast(past, player.PastIGNs) {
			s.logger.InfoContext(ctx, "Name history already up to date", attr.PlayerID(id))
			return results.SuccessResult[*playerdb.Player, error](player), nil
		}

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*playerdb.Player, error], error) {
			// Re-read inside the transaction so concurrent alt changes are kept.
			fresh, err := s.repo.GetByID(ctx, db, id)
			if err != nil {
				return results.OperationResult[*playerdb.Player, error]{}, fmt.Errorf("reload player: %w", err)
			}
			fresh.CurrentIGN = current
			fresh.PastIGNs = past
			if err := s.repo.Update(ctx, db, fresh); err != nil {
				return results.OperationResult[*playerdb.Player, error]{}, fmt.Errorf("update names: %w", err)
			}
			s.logger.InfoContext(ctx, "Name history synced",
				attr.PlayerID(id), attr.String("ign", current), attr.Int("past_igns", len(past)))
			return results.SuccessResult[*playerdb.Player, error](fresh), nil
		})
	})
}

// mergeHistory returns the current name and the past names, oldest first.
// A name that appears more than once in the history is listed once.
func mergeHistory(existing []playerdb.PastIGN, remote *playeridentity.Profile) (string, []playerdb.PastIGN) {
	hidden := make(map[string]bool, len(existing))
	for _, p := range existing {
		hidden[strings.ToLower(p.Name)] = p.Hidden
	}

	current := remote.Name
	seen := map[string]struct{}{strings.ToLower(current): {}}
	past := make([]playerdb.PastIGN, 0, len(remote.History))
	for _, change := range remote.History {
		key := strings.ToLower(change.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		past = append(past, playerdb.PastIGN{Name: change.Name, Hidden: hidden[key], Number: len(past) + 1})
	}
	return current, past
}

func samePast(a, b []playerdb.PastIGN) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
