package eventservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	mentionservice "github.com/tnt-tag-history/tnt-history/app/modules/mention/application"
	"github.com/tnt-tag-history/tnt-history/app/shared/domainevents"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
	"github.com/uptrace/bun"
)

// ListEvents returns events matching filter, oldest first.
func (s *EventService) ListEvents(ctx context.Context, filter eventdb.ListFilter) (results.OperationResult[[]*eventdb.Event, error], error) {
	return withTelemetry(s, ctx, "ListEvents", filter.Category, func(ctx context.Context) (results.OperationResult[[]*eventdb.Event, error], error) {
		events, err := s.repo.List(ctx, s.db, filter)
		if err != nil {
			return results.OperationResult[[]*eventdb.Event, error]{}, fmt.Errorf("list events: %w", err)
		}
		return results.SuccessResult[[]*eventdb.Event, error](events), nil
	})
}

// GetEvent returns a single event or an ErrEventNotFound failure.
func (s *EventService) GetEvent(ctx context.Context, id string) (results.OperationResult[*eventdb.Event, error], error) {
	return withTelemetry(s, ctx, "GetEvent", id, func(ctx context.Context) (results.OperationResult[*eventdb.Event, error], error) {
		event, err := s.repo.GetByID(ctx, s.db, id)
		if err != nil {
			if errors.Is(err, eventdb.ErrNotFound) {
				return results.FailureResult[*eventdb.Event, error](ErrEventNotFound), nil
			}
			return results.OperationResult[*eventdb.Event, error]{}, fmt.Errorf("get event: %w", err)
		}
		return results.SuccessResult[*eventdb.Event, error](event), nil
	})
}

// CreateEvent validates input, writes the event, indexes its mentions and
// publishes event.created.v1.
func (s *EventService) CreateEvent(ctx context.Context, input EventInput) (results.OperationResult[*eventdb.Event, error], error) {
	return withTelemetry(s, ctx, "CreateEvent", input.Title, func(ctx context.Context) (results.OperationResult[*eventdb.Event, error], error) {
		now := s.now()
		event, err := s.buildEvent(input, now)
		if err != nil {
			return results.FailureResult[*eventdb.Event, error](err), nil
		}
		event.ID = s.newID()
		event.CreatedAt = now
		event.UpdatedAt = now

		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*eventdb.Event, error], error) {
			if err := s.repo.Create(ctx, db, event); err != nil {
				return results.OperationResult[*eventdb.Event, error]{}, fmt.Errorf("create event: %w", err)
			}
			return results.SuccessResult[*eventdb.Event, error](event), nil
		})
		if err != nil || result.IsFailure() {
			return result, err
		}

		if s.indexer != nil {
			if _, err := s.indexer.OnEventCreated(ctx, event); err != nil {
				s.logger.ErrorContext(ctx, "Mention indexing failed after create",
					attr.EventID(event.ID), attr.Error(err))
			}
		}
		s.publish(ctx, domainevents.EventCreatedV1, changedPayload(event))
		return result, nil
	})
}

// UpdateEvent replaces the stored event with input and reindexes the mention difference.
func (s *EventService) UpdateEvent(ctx context.Context, id string, input EventInput) (results.OperationResult[*eventdb.Event, error], error) {
	return withTelemetry(s, ctx, "UpdateEvent", id, func(ctx context.Context) (results.OperationResult[*eventdb.Event, error], error) {
		now := s.now()
		updated, err := s.buildEvent(input, now)
		if err != nil {
			return results.FailureResult[*eventdb.Event, error](err), nil
		}
		updated.ID = id
		updated.UpdatedAt = now

		var previous *eventdb.Event
		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*eventdb.Event, error], error) {
			old, err := s.repo.GetByID(ctx, db, id)
			if err != nil {
				if errors.Is(err, eventdb.ErrNotFound) {
					return results.FailureResult[*eventdb.Event, error](ErrEventNotFound), nil
				}
				return results.OperationResult[*eventdb.Event, error]{}, fmt.Errorf("load event: %w", err)
			}
			previous = old
			updated.CreatedAt = old.CreatedAt

			if err := s.repo.Update(ctx, db, updated); err != nil {
				if errors.Is(err, eventdb.ErrNotFound) {
					return results.FailureResult[*eventdb.Event, error](ErrEventNotFound), nil
				}
				return results.OperationResult[*eventdb.Event, error]{}, fmt.Errorf("update event: %w", err)
			}
			return results.SuccessResult[*eventdb.Event, error](updated), nil
		})
		if err != nil || result.IsFailure() {
			return result, err
		}

		if s.indexer != nil {
			if _, err := s.indexer.OnEventUpdated(ctx, previous, updated); err != nil {
				s.logger.ErrorContext(ctx, "Mention indexing failed after update",
					attr.EventID(id), attr.Error(err))
			}
		}
		s.publish(ctx, domainevents.EventUpdatedV1, changedPayload(updated))
		return result, nil
	})
}

// DeleteEvent removes the event and its mentions. Deleting an event that does
// not exist succeeds with Deleted=false.
func (s *EventService) DeleteEvent(ctx context.Context, id string) (results.OperationResult[*DeleteOutcome, error], error) {
	return withTelemetry(s, ctx, "DeleteEvent", id, func(ctx context.Context) (results.OperationResult[*DeleteOutcome, error], error) {
		event, err := s.repo.GetByID(ctx, s.db, id)
		if err != nil {
			if errors.Is(err, eventdb.ErrNotFound) {
				s.logger.InfoContext(ctx, "Delete requested for missing event", attr.EventID(id))
				return results.SuccessResult[*DeleteOutcome, error](&DeleteOutcome{EventID: id}), nil
			}
			return results.OperationResult[*DeleteOutcome, error]{}, fmt.Errorf("load event: %w", err)
		}

		outcome := &DeleteOutcome{EventID: id, Deleted: true}
		if s.indexer != nil {
			fanOut, err := s.indexer.OnEventDeleted(ctx, event)
			if err != nil {
				return results.OperationResult[*DeleteOutcome, error]{}, fmt.Errorf("delete event: %w", err)
			}
			outcome.FanOut = fanOut
		} else {
			if err := s.repo.Delete(ctx, s.db, id); err != nil && !errors.Is(err, eventdb.ErrNotFound) {
				return results.OperationResult[*DeleteOutcome, error]{}, fmt.Errorf("delete event: %w", err)
			}
		}

		s.publish(ctx, domainevents.EventDeletedV1, domainevents.EventDeletedPayloadV1{
			EventID:    id,
			OccurredAt: s.now(),
		})
		return results.SuccessResult[*DeleteOutcome, error](outcome), nil
	})
}

// ListTags returns every tag in use.
func (s *EventService) ListTags(ctx context.Context) (results.OperationResult[[]string, error], error) {
	return withTelemetry(s, ctx, "ListTags", "", func(ctx context.Context) (results.OperationResult[[]string, error], error) {
		tags, err := s.repo.ListTags(ctx, s.db)
		if err != nil {
			return results.OperationResult[[]string, error]{}, fmt.Errorf("list tags: %w", err)
		}
		return results.SuccessResult[[]string, error](tags), nil
	})
}

// buildEvent validates input and converts it to a row. ID and timestamps are left to the caller.
func (s *EventService) buildEvent(input EventInput, now time.Time) (*eventdb.Event, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrInvalidTitle
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, ErrInvalidCategory
	}

	date, err := ParseEventDate(input.Date, now)
	if err != nil {
		return nil, err
	}

	event := &eventdb.Event{
		Title:       title,
		Date:        date,
		Category:    category,
		Description: input.Description,
		IsSpecial:   input.IsSpecial,
		Tags:        normalizeTags(input.Tags),
		SideEvents:  make([]eventdb.SideEvent, 0, len(input.SideEvents)),
		Tables:      make([]eventdb.Table, 0, len(input.Tables)),
	}

	if strings.TrimSpace(input.EndDate) != "" {
		end, err := ParseEventDate(input.EndDate, now)
		if err != nil {
			return nil, err
		}
		if end.Before(date) {
			return nil, ErrInvalidDateRange
		}
		event.EndDate = &end
	}

	for _, side := range input.SideEvents {
		se := eventdb.SideEvent{Title: strings.TrimSpace(side.Title), Description: side.Description}
		if strings.TrimSpace(side.Date) != "" {
			d, err := ParseEventDate(side.Date, now)
			if err != nil {
				return nil, err
			}
			se.Date = &d
		}
		event.SideEvents = append(event.SideEvents, se)
	}

	for _, table := range input.Tables {
		if err := validateTable(table); err != nil {
			return nil, err
		}
		event.Tables = append(event.Tables, table)
	}

	return event, nil
}

// normalizeTags trims, drops empties and removes duplicates, keeping first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func changedPayload(event *eventdb.Event) domainevents.EventChangedPayloadV1 {
	return domainevents.EventChangedPayloadV1{
		EventID:    event.ID,
		Title:      event.Title,
		Category:   event.Category,
		Mentions:   mentionservice.ExtractMentions(event.Record()).Sorted(),
		OccurredAt: event.UpdatedAt,
	}
}
