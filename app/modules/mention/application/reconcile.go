package mentionservice

import (
	"context"
	"fmt"
	"slices"

	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
)

// ReconcileAll rebuilds every player's event list from the current events and
// writes only the players whose stored list differs.
func (s *MentionService) ReconcileAll(ctx context.Context) (*ReconcileReport, error) {
	return unwrap(withTelemetry(s, ctx, "ReconcileAll", "all", func(ctx context.Context) (results.OperationResult[*ReconcileReport, error], error) {
		events, err := s.events.List(ctx, nil, eventdb.ListFilter{})
		if err != nil {
			return results.OperationResult[*ReconcileReport, error]{}, fmt.Errorf("failed to list events: %w", err)
		}
		players, err := s.players.List(ctx, nil)
		if err != nil {
			return results.OperationResult[*ReconcileReport, error]{}, fmt.Errorf("failed to list players: %w", err)
		}

		report := &ReconcileReport{EventsScanned: len(events)}

		desired := make(map[string][]string)
		for _, event := range events {
			for _, playerID := range ExtractMentions(event.Record()).Sorted() {
				desired[playerID] = append(desired[playerID], event.ID)
			}
		}

		known := make(map[string]struct{}, len(players))
		for _, player := range players {
			known[player.ID] = struct{}{}
		}
		for playerID, eventIDs := range desired {
			if _, ok := known[playerID]; !ok {
				report.DanglingMentions++
				s.logger.WarnContext(ctx, "Mention references unknown player",
					attr.PlayerID(playerID),
					attr.Any("event_ids", eventIDs),
				)
			}
		}

		for _, player := range players {
			want := desired[player.ID]
			if sameEvents(player.Events, want) {
				continue
			}
			if err := s.players.SetEvents(ctx, nil, player.ID, want); err != nil {
				s.logger.ErrorContext(ctx, "Failed to rewrite player events",
					attr.PlayerID(player.ID), attr.Error(err))
				report.Failures++
				continue
			}
			report.PlayersUpdated++
		}

		s.logger.InfoContext(ctx, "Mention reconcile finished",
			attr.Int("events_scanned", report.EventsScanned),
			attr.Int("players_updated", report.PlayersUpdated),
			attr.Int("dangling_mentions", report.DanglingMentions),
			attr.Int("failures", report.Failures),
		)
		return results.SuccessResult[*ReconcileReport, error](report), nil
	}))
}

// sameEvents compares ignoring order. Duplicates count, so a list holding an
// id twice is rewritten.
func sameEvents(have, want []string) bool {
	if len(have) != len(want) {
		return false
	}
	a := slices.Clone(have)
	b := slices.Clone(want)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
