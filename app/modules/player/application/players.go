package playerservice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	mentionservice "github.com/tnt-tag-history/tnt-history/app/modules/mention/application"
	playeridentity "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/identity"
	playerdb "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/app/shared/domainevents"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
	"github.com/uptrace/bun"
)

const defaultRole = "player"

// playerIDPattern matches the id half of a description mention token, so
// every stored player can be referenced from event text.
var playerIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// GetPlayer returns a curated player by id.
func (s *PlayerService) GetPlayer(ctx context.Context, id string) (results.OperationResult[*playerdb.Player, error], error) {
	return withTelemetry(s, ctx, "GetPlayer", id, func(ctx context.Context) (results.OperationResult[*playerdb.Player, error], error) {
		player, err := s.repo.GetByID(ctx, s.db, id)
		if err != nil {
			if errors.Is(err, playerdb.ErrNotFound) {
				return results.FailureResult[*playerdb.Player, error](ErrPlayerNotFound), nil
			}
			return results.OperationResult[*playerdb.Player, error]{}, fmt.Errorf("get player: %w", err)
		}
		return results.SuccessResult[*playerdb.Player, error](player), nil
	})
}

// ListPlayers returns every curated player ordered by name.
func (s *PlayerService) ListPlayers(ctx context.Context) (results.OperationResult[[]*playerdb.Player, error], error) {
	return withTelemetry(s, ctx, "ListPlayers", "", func(ctx context.Context) (results.OperationResult[[]*playerdb.Player, error], error) {
		players, err := s.repo.List(ctx, s.db)
		if err != nil {
			return results.OperationResult[[]*playerdb.Player, error]{}, fmt.Errorf("list players: %w", err)
		}
		return results.SuccessResult[[]*playerdb.Player, error](players), nil
	})
}

// CreatePlayer stores a new curated player. A missing UUID is resolved from
// the current name when the identity service is available; failure to resolve
// it is logged and the player is stored without one.
func (s *PlayerService) CreatePlayer(ctx context.Context, input PlayerInput) (results.OperationResult[*playerdb.Player, error], error) {
	return withTelemetry(s, ctx, "CreatePlayer", input.CurrentIGN, func(ctx context.Context) (results.OperationResult[*playerdb.Player, error], error) {
		player, err := s.buildPlayer(input)
		if err != nil {
			return results.FailureResult[*playerdb.Player, error](err), nil
		}
		player.ID = strings.TrimSpace(input.ID)
		if player.ID == "" {
			player.ID = s.newID()
		} else if !playerIDPattern.MatchString(player.ID) {
			return results.FailureResult[*playerdb.Player, error](ErrInvalidID), nil
		}

		if player.UUID == "" && s.identity != nil {
			profile, err := s.identity.ProfileByName(ctx, player.CurrentIGN)
			if err != nil {
				s.logger.WarnContext(ctx, "Could not resolve uuid for new player",
					attr.String("ign", player.CurrentIGN), attr.Error(err))
			} else {
				player.UUID = profile.UUID
			}
		}

		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*playerdb.Player, error], error) {
			if failure, err := s.checkUniqueUUID(ctx, db, player.UUID, player.ID); failure != nil || err != nil {
				return results.OperationResult[*playerdb.Player, error]{Failure: failure}, err
			}
			if failure, err := s.checkMain(ctx, db, player.MainAccount, player.ID); failure != nil || err != nil {
				return results.OperationResult[*playerdb.Player, error]{Failure: failure}, err
			}

			if err := s.repo.Create(ctx, db, player); err != nil {
				return results.OperationResult[*playerdb.Player, error]{}, fmt.Errorf("create player: %w", err)
			}
			if player.MainAccount != nil {
				if err := s.repo.AddAlt(ctx, db, *player.MainAccount, player.ID); err != nil {
					return results.OperationResult[*playerdb.Player, error]{}, fmt.Errorf("link main account: %w", err)
				}
			}
			return results.SuccessResult[*playerdb.Player, error](player), nil
		})
		if err != nil || result.IsFailure() {
			return result, err
		}

		s.requestIGNSync(ctx, player)
		return result, nil
	})
}

// UpdatePlayer rewrites a player's profile fields. When the main account
// changes, the old main loses and the new main gains this player as an alt.
func (s *PlayerService) UpdatePlayer(ctx context.Context, id string, input PlayerInput) (results.OperationResult[*playerdb.Player, error], error) {
	return withTelemetry(s, ctx, "UpdatePlayer", id, func(ctx context.Context) (results.OperationResult[*playerdb.Player, error], error) {
		changes, err := s.buildPlayer(input)
		if err != nil {
			return results.FailureResult[*playerdb.Player, error](err), nil
		}

		var uuidChanged bool
		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*playerdb.Player, error], error) {
			player, err := s.repo.GetByID(ctx, db, id)
			if err != nil {
				if errors.Is(err, playerdb.ErrNotFound) {
					return results.FailureResult[*playerdb.Player, error](ErrPlayerNotFound), nil
				}
				return results.OperationResult[*playerdb.Player, error]{}, fmt.Errorf("load player: %w", err)
			}

			if changes.UUID != player.UUID {
				if failure, err := s.checkUniqueUUID(ctx, db, changes.UUID, id); failure != nil || err != nil {
					return results.OperationResult[*playerdb.Player, error]{Failure: failure}, err
				}
				uuidChanged = changes.UUID != ""
			}
			if failure, err := s.checkMain(ctx, db, changes.MainAccount, id); failure != nil || err != nil {
				return results.OperationResult[*playerdb.Player, error]{Failure: failure}, err
			}

			oldMain := derefString(player.MainAccount)
			newMain := derefString(changes.MainAccount)

			player.CurrentIGN = changes.CurrentIGN
			player.UUID = changes.UUID
			player.Role = changes.Role
			player.PastIGNs = changes.PastIGNs
			player.MainAccount = changes.MainAccount

			if err := s.repo.Update(ctx, db, player); err != nil {
				return results.OperationResult[*playerdb.Player, error]{}, fmt.Errorf("update player: %w", err)
			}

			if oldMain != newMain {
				if oldMain != "" {
					if err := s.repo.RemoveAlt(ctx, db, oldMain, id); err != nil {
						return results.OperationResult[*playerdb.Player, error]{}, fmt.Errorf("unlink old main account: %w", err)
					}
				}
				if newMain != "" {
					if err := s.repo.AddAlt(ctx, db, newMain, id); err != nil {
						return results.OperationResult[*playerdb.Player, error]{}, fmt.Errorf("link main account: %w", err)
					}
				}
			}
			return results.SuccessResult[*playerdb.Player, error](player), nil
		})
		if err != nil || result.IsFailure() {
			return result, err
		}

		if uuidChanged {
			s.requestIGNSync(ctx, *result.Success)
		}
		return result, nil
	})
}

// DeletePlayer detaches the player from linked accounts and then deletes it.
// Cascade failures are recorded on the result and do not stop the delete.
func (s *PlayerService) DeletePlayer(ctx context.Context, id string) (results.OperationResult[*mentionservice.CascadeResult, error], error) {
	return withTelemetry(s, ctx, "DeletePlayer", id, func(ctx context.Context) (results.OperationResult[*mentionservice.CascadeResult, error], error) {
		player, err := s.repo.GetByID(ctx, s.db, id)
		if err != nil {
			if errors.Is(err, playerdb.ErrNotFound) {
				return results.FailureResult[*mentionservice.CascadeResult, error](ErrPlayerNotFound), nil
			}
			return results.OperationResult[*mentionservice.CascadeResult, error]{}, fmt.Errorf("load player: %w", err)
		}

		cascade := &mentionservice.CascadeResult{PlayerID: id}
		if s.cascade != nil {
			res, err := s.cascade.CascadePlayerDeleted(ctx, player)
			if err != nil {
				s.logger.ErrorContext(ctx, "Alt cascade failed", attr.PlayerID(id), attr.Error(err))
			} else if res != nil {
				cascade = res
			}
		}

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*mentionservice.CascadeResult, error], error) {
			if err := s.repo.Delete(ctx, db, id); err != nil && !errors.Is(err, playerdb.ErrNotFound) {
				return results.OperationResult[*mentionservice.CascadeResult, error]{}, fmt.Errorf("delete player: %w", err)
			}
			return results.SuccessResult[*mentionservice.CascadeResult, error](cascade), nil
		})
	})
}

// buildPlayer validates input. ID is left to the caller.
func (s *PlayerService) buildPlayer(input PlayerInput) (*playerdb.Player, error) {
	ign := strings.TrimSpace(input.CurrentIGN)
	if !playeridentity.IsValidName(ign) {
		return nil, ErrInvalidIGN
	}

	var id string
	if raw := strings.TrimSpace(input.UUID); raw != "" {
		id = playeridentity.NormalizeUUID(raw)
		if id == "" {
			return nil, ErrInvalidUUID
		}
	}

	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = defaultRole
	}

	player := &playerdb.Player{
		CurrentIGN: ign,
		UUID:       id,
		Role:       role,
		PastIGNs:   renumber(input.PastIGNs),
	}
	if main := strings.TrimSpace(input.MainAccount); main != "" {
		player.MainAccount = &main
	}
	return player, nil
}

func (s *PlayerService) checkUniqueUUID(ctx context.Context, db bun.IDB, id, self string) (*error, error) {
	if id == "" {
		return nil, nil
	}
	existing, err := s.repo.FindByUUID(ctx, db, id)
	if err != nil {
		if errors.Is(err, playerdb.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("check uuid: %w", err)
	}
	if existing.ID != self {
		failure := ErrDuplicatePlayer
		return &failure, nil
	}
	return nil, nil
}

func (s *PlayerService) checkMain(ctx context.Context, db bun.IDB, main *string, self string) (*error, error) {
	if main == nil {
		return nil, nil
	}
	failure := ErrInvalidMainAccount
	if *main == self {
		return &failure, nil
	}
	if _, err := s.repo.GetByID(ctx, db, *main); err != nil {
		if errors.Is(err, playerdb.ErrNotFound) {
			return &failure, nil
		}
		return nil, fmt.Errorf("check main account: %w", err)
	}
	return nil, nil
}

func (s *PlayerService) requestIGNSync(ctx context.Context, player *playerdb.Player) {
	if player.UUID == "" {
		return
	}
	s.publish(ctx, domainevents.PlayerIGNSyncRequestedV1, domainevents.PlayerIGNSyncRequestedPayloadV1{
		PlayerID: player.ID,
		UUID:     player.UUID,
	})
}

// renumber drops blank names and numbers the rest 1..n in the given order.
func renumber(past []playerdb.PastIGN) []playerdb.PastIGN {
	out := make([]playerdb.PastIGN, 0, len(past))
	for _, p := range past {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		out = append(out, playerdb.PastIGN{Name: name, Hidden: p.Hidden, Number: len(out) + 1})
	}
	return out
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
