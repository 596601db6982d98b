package mentionservice

import (
	"context"
	"errors"

	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	playerdb "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
	"github.com/uptrace/bun"
)

// Player-side writes below never run inside a transaction and never return an
// error: each player is attempted once, failures are logged and recorded on the
// result, and the loop moves on.

// OnEventCreated appends event.ID to every player the event mentions.
func (s *MentionService) OnEventCreated(ctx context.Context, event *eventdb.Event) (*FanOutResult, error) {
	return unwrap(withTelemetry(s, ctx, "OnEventCreated", event.ID, func(ctx context.Context) (results.OperationResult[*FanOutResult, error], error) {
		res := &FanOutResult{EventID: event.ID}
		for _, playerID := range ExtractMentions(event.Record()).Sorted() {
			s.appendEvent(ctx, playerID, event.ID, res)
		}
		return results.SuccessResult[*FanOutResult, error](res), nil
	}))
}

// OnEventUpdated applies the difference between the old and new mention sets.
// Players mentioned by both versions are not read or written.
func (s *MentionService) OnEventUpdated(ctx context.Context, oldEvent, newEvent *eventdb.Event) (*FanOutResult, error) {
	return unwrap(withTelemetry(s, ctx, "OnEventUpdated", newEvent.ID, func(ctx context.Context) (results.OperationResult[*FanOutResult, error], error) {
		oldMentions := Set{}
		if oldEvent != nil {
			oldMentions = ExtractMentions(oldEvent.Record())
		}
		newMentions := ExtractMentions(newEvent.Record())

		res := &FanOutResult{
			EventID:   newEvent.ID,
			Unchanged: oldMentions.Intersect(newMentions),
		}
		for _, playerID := range oldMentions.Minus(newMentions) {
			s.removeEvent(ctx, playerID, newEvent.ID, res)
		}
		for _, playerID := range newMentions.Minus(oldMentions) {
			s.appendEvent(ctx, playerID, newEvent.ID, res)
		}
		return results.SuccessResult[*FanOutResult, error](res), nil
	}))
}

// OnEventDeleted strips event.ID from mentioned players and then deletes the
// event. An event that is already gone is not an error.
func (s *MentionService) OnEventDeleted(ctx context.Context, event *eventdb.Event) (*FanOutResult, error) {
	return unwrap(withTelemetry(s, ctx, "OnEventDeleted", event.ID, func(ctx context.Context) (results.OperationResult[*FanOutResult, error], error) {
		res := &FanOutResult{EventID: event.ID}
		for _, playerID := range ExtractMentions(event.Record()).Sorted() {
			s.removeEvent(ctx, playerID, event.ID, res)
		}

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*FanOutResult, error], error) {
			if err := s.events.Delete(ctx, db, event.ID); err != nil {
				if errors.Is(err, eventdb.ErrNotFound) {
					s.logger.InfoContext(ctx, "Event already deleted", attr.EventID(event.ID))
					return results.SuccessResult[*FanOutResult, error](res), nil
				}
				return results.OperationResult[*FanOutResult, error]{}, err
			}
			return results.SuccessResult[*FanOutResult, error](res), nil
		})
	}))
}

// CascadePlayerDeleted detaches a deleted player from its alts and from its
// main account. The two halves run independently.
func (s *MentionService) CascadePlayerDeleted(ctx context.Context, player *playerdb.Player) (*CascadeResult, error) {
	return unwrap(withTelemetry(s, ctx, "CascadePlayerDeleted", player.ID, func(ctx context.Context) (results.OperationResult[*CascadeResult, error], error) {
		res := &CascadeResult{PlayerID: player.ID}

		for _, altID := range player.AltAccounts {
			if err := s.players.ClearMainAccount(ctx, nil, altID); err != nil {
				s.logger.ErrorContext(ctx, "Failed to clear main account on alt",
					attr.PlayerID(player.ID),
					attr.String("alt_id", altID),
					attr.Error(err),
				)
				res.Failed = append(res.Failed, altID)
				continue
			}
			res.AltsCleared = append(res.AltsCleared, altID)
		}

		if player.MainAccount != nil && *player.MainAccount != "" {
			mainID := *player.MainAccount
			if err := s.players.RemoveAlt(ctx, nil, mainID, player.ID); err != nil {
				s.logger.ErrorContext(ctx, "Failed to remove alt from main account",
					attr.PlayerID(player.ID),
					attr.String("main_id", mainID),
					attr.Error(err),
				)
				res.Failed = append(res.Failed, mainID)
			} else {
				res.MainUpdated = mainID
			}
		}

		return results.SuccessResult[*CascadeResult, error](res), nil
	}))
}

// lookup treats every failure as "not found".
func (s *MentionService) lookup(ctx context.Context, playerID, eventID string) *playerdb.Player {
	player, err := s.players.GetByID(ctx, nil, playerID)
	if err != nil {
		if errors.Is(err, playerdb.ErrNotFound) {
			s.logger.WarnContext(ctx, "Mentioned player does not exist",
				attr.PlayerID(playerID), attr.EventID(eventID))
		} else {
			s.logger.ErrorContext(ctx, "Failed to look up mentioned player",
				attr.PlayerID(playerID), attr.EventID(eventID), attr.Error(err))
		}
		return nil
	}
	return player
}

func (s *MentionService) appendEvent(ctx context.Context, playerID, eventID string, res *FanOutResult) {
	player := s.lookup(ctx, playerID, eventID)
	if player == nil {
		res.Skipped = append(res.Skipped, playerID)
		return
	}
	if player.HasEvent(eventID) {
		s.logger.InfoContext(ctx, "Player already lists event",
			attr.PlayerID(playerID), attr.EventID(eventID))
		res.Unchanged = append(res.Unchanged, playerID)
		return
	}
	if err := s.players.AppendEvent(ctx, nil, playerID, eventID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to append event to player",
			attr.PlayerID(playerID), attr.EventID(eventID), attr.Error(err))
		res.Failed = append(res.Failed, playerID)
		return
	}
	res.Appended = append(res.Appended, playerID)
}

func (s *MentionService) removeEvent(ctx context.Context, playerID, eventID string, res *FanOutResult) {
	player := s.lookup(ctx, playerID, eventID)
	if player == nil {
		res.Skipped = append(res.Skipped, playerID)
		return
	}
	if !player.HasEvent(eventID) {
		res.Unchanged = append(res.Unchanged, playerID)
		return
	}
	if err := s.players.RemoveEvent(ctx, nil, playerID, eventID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to remove event from player",
			attr.PlayerID(playerID), attr.EventID(eventID), attr.Error(err))
		res.Failed = append(res.Failed, playerID)
		return
	}
	res.Removed = append(res.Removed, playerID)
}
