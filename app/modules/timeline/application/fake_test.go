package timelineservice

import (
	"context"

	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// FakeEventSource is a programmable fake for EventSource.
type FakeEventSource struct {
	trace []string

	ListFunc    func(ctx context.Context, db bun.IDB, filter eventdb.ListFilter) ([]*eventdb.Event, error)
	GetByIDFunc func(ctx context.Context, db bun.IDB, id string) (*eventdb.Event, error)
}

func (f *FakeEventSource) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeEventSource) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeEventSource) List(ctx context.Context, db bun.IDB, filter eventdb.ListFilter) ([]*eventdb.Event, error) {
	f.record("List")
	if f.ListFunc != nil {
		return f.ListFunc(ctx, db, filter)
	}
	return nil, nil
}

func (f *FakeEventSource) GetByID(ctx context.Context, db bun.IDB, id string) (*eventdb.Event, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, db, id)
	}
	return nil, eventdb.ErrNotFound
}
