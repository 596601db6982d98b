package playerservice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	playeridentity "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/identity"
	playerdb "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
)

const avatarSize = 128

// LookupProfile finds a player by UUID or by current or past name. Curated
// players are checked first; otherwise the identity service is asked. Game
// stats are attached when they can be fetched.
func (s *PlayerService) LookupProfile(ctx context.Context, query string) (results.OperationResult[*Profile, error], error) {
	return withTelemetry(s, ctx, "LookupProfile", query, func(ctx context.Context) (results.OperationResult[*Profile, error], error) {
		query = strings.TrimSpace(query)
		byUUID := playeridentity.NormalizeUUID(query)
		if byUUID == "" && !playeridentity.IsValidName(query) {
			return results.FailureResult[*Profile, error](ErrInvalidIGN), nil
		}

		var (
			player *playerdb.Player
			err    error
		)
		if byUUID != "" {
			player, err = s.repo.FindByUUID(ctx, s.db, byUUID)
		} else {
			player, err = s.repo.FindByIGN(ctx, s.db, query)
		}
		if err != nil && !errors.Is(err, playerdb.ErrNotFound) {
			return results.OperationResult[*Profile, error]{}, fmt.Errorf("find player: %w", err)
		}

		profile := &Profile{Events: []EventSummary{}, PastIGNs: []playerdb.PastIGN{}}
		if player != nil {
			profile.Player = player
			profile.UUID = player.UUID
			profile.Name = player.CurrentIGN
			profile.PastIGNs = visiblePastIGNs(player.PastIGNs)
			profile.Events = s.summarizeEvents(ctx, player.Events)
		} else {
			remote, failure := s.remoteProfile(ctx, query, byUUID)
			if failure != nil {
				return results.FailureResult[*Profile, error](failure), nil
			}
			profile.UUID = remote.UUID
			profile.Name, profile.PastIGNs = mergeHistory(nil, remote)
		}

		profile.AvatarURL = playeridentity.AvatarURL(profile.UUID, avatarSize)
		if profile.UUID != "" && s.stats != nil && s.stats.Enabled() {
			stats, err := s.stats.TNTGames(ctx, profile.UUID)
			if err != nil {
				s.logger.WarnContext(ctx, "Stats lookup failed", attr.String("uuid", profile.UUID), attr.Error(err))
			} else {
				profile.Stats = stats
			}
		}

		return results.SuccessResult[*Profile, error](profile), nil
	})
}

func (s *PlayerService) remoteProfile(ctx context.Context, query, byUUID string) (*playeridentity.Profile, error) {
	if s.identity == nil {
		return nil, ErrPlayerNotFound
	}

	var (
		remote *playeridentity.Profile
		err    error
	)
	if byUUID != "" {
		remote, err = s.identity.ProfileByUUID(ctx, byUUID)
	} else {
		remote, err = s.identity.ProfileByName(ctx, query)
	}
	if err != nil {
		if errors.Is(err, playeridentity.ErrProfileNotFound) {
			return nil, ErrPlayerNotFound
		}
		s.logger.ErrorContext(ctx, "Identity lookup failed", attr.String("query", query), attr.Error(err))
		return nil, ErrIdentityUnavailable
	}
	return remote, nil
}

// summarizeEvents resolves event ids to titles, oldest first. Ids whose event
// cannot be read are left out.
func (s *PlayerService) summarizeEvents(ctx context.Context, ids []string) []EventSummary {
	out := make([]EventSummary, 0, len(ids))
	if s.events == nil {
		return out
	}
	for _, id := range ids {
		event, err := s.events.GetByID(ctx, s.db, id)
		if err != nil {
			if !errors.Is(err, eventdb.ErrNotFound) {
				s.logger.WarnContext(ctx, "Failed to resolve mentioned event", attr.EventID(id), attr.Error(err))
			}
			continue
		}
		out = append(out, EventSummary{ID: event.ID, Title: event.Title, Date: event.Date})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func visiblePastIGNs(past []playerdb.PastIGN) []playerdb.PastIGN {
	out := make([]playerdb.PastIGN, 0, len(past))
	for _, p := range past {
		if !p.Hidden {
			out = append(out, p)
		}
	}
	return out
}
