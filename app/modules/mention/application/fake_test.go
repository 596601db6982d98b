package mentionservice

import (
	"context"
	"fmt"
	"slices"
	"sort"

	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	playerdb "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Event Store
// ------------------------

type FakeEventStore struct {
	trace  []string
	events map[string]*eventdb.Event

	ListFunc   func(ctx context.Context, db bun.IDB, filter eventdb.ListFilter) ([]*eventdb.Event, error)
	DeleteFunc func(ctx context.Context, db bun.IDB, id string) error
}

func NewFakeEventStore(events ...*eventdb.Event) *FakeEventStore {
	f := &FakeEventStore{events: map[string]*eventdb.Event{}}
	for _, e := range events {
		f.events[e.ID] = e
	}
	return f
}

func (f *FakeEventStore) List(ctx context.Context, db bun.IDB, filter eventdb.ListFilter) ([]*eventdb.Event, error) {
	f.trace = append(f.trace, "List")
	if f.ListFunc != nil {
		return f.ListFunc(ctx, db, filter)
	}
	out := make([]*eventdb.Event, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeEventStore) Delete(ctx context.Context, db bun.IDB, id string) error {
	f.trace = append(f.trace, "Delete:"+id)
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, db, id)
	}
	if _, ok := f.events[id]; !ok {
		return eventdb.ErrNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *FakeEventStore) Trace() []string {
	return slices.Clone(f.trace)
}

var _ EventStore = (*FakeEventStore)(nil)

// ------------------------
// Fake Player Store
// ------------------------

// FakePlayerStore keeps players in memory. Each *Func field, when set,
// replaces the in-memory behavior for that method.
type FakePlayerStore struct {
	trace   []string
	players map[string]*playerdb.Player

	GetByIDFunc     func(ctx context.Context, db bun.IDB, id string) (*playerdb.Player, error)
	AppendEventFunc func(ctx context.Context, db bun.IDB, playerID, eventID string) error
	RemoveEventFunc func(ctx context.Context, db bun.IDB, playerID, eventID string) error
	SetEventsFunc   func(ctx context.Context, db bun.IDB, playerID string, eventIDs []string) error
	ClearMainFunc   func(ctx context.Context, db bun.IDB, playerID string) error
	RemoveAltFunc   func(ctx context.Context, db bun.IDB, playerID, altID string) error
}

func NewFakePlayerStore(players ...*playerdb.Player) *FakePlayerStore {
	f := &FakePlayerStore{players: map[string]*playerdb.Player{}}
	for _, p := range players {
		f.players[p.ID] = p
	}
	return f
}

func (f *FakePlayerStore) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakePlayerStore) GetByID(ctx context.Context, db bun.IDB, id string) (*playerdb.Player, error) {
	f.record("GetByID:" + id)
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, db, id)
	}
	p, ok := f.players[id]
	if !ok {
		return nil, playerdb.ErrNotFound
	}
	cp := *p
	cp.Events = slices.Clone(p.Events)
	return &cp, nil
}

func (f *FakePlayerStore) List(ctx context.Context, db bun.IDB) ([]*playerdb.Player, error) {
	f.record("List")
	out := make([]*playerdb.Player, 0, len(f.players))
	for _, p := range f.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakePlayerStore) AppendEvent(ctx context.Context, db bun.IDB, playerID, eventID string) error {
	f.record("AppendEvent:" + playerID)
	if f.AppendEventFunc != nil {
		return f.AppendEventFunc(ctx, db, playerID, eventID)
	}
	p, ok := f.players[playerID]
	if !ok {
		return fmt.Errorf("no player %s", playerID)
	}
	if !slices.Contains(p.Events, eventID) {
		p.Events = append(p.Events, eventID)
	}
	return nil
}

func (f *FakePlayerStore) RemoveEvent(ctx context.Context, db bun.IDB, playerID, eventID string) error {
	f.record("RemoveEvent:" + playerID)
	if f.RemoveEventFunc != nil {
		return f.RemoveEventFunc(ctx, db, playerID, eventID)
	}
	p, ok := f.players[playerID]
	if !ok {
		return fmt.Errorf("no player %s", playerID)
	}
	p.Events = slices.DeleteFunc(p.Events, func(id string) bool { return id == eventID })
	return nil
}

func (f *FakePlayerStore) SetEvents(ctx context.Context, db bun.IDB, playerID string, eventIDs []string) error {
	f.record("SetEvents:" + playerID)
	if f.SetEventsFunc != nil {
		return f.SetEventsFunc(ctx, db, playerID, eventIDs)
	}
	f.players[playerID].Events = slices.Clone(eventIDs)
	return nil
}

func (f *FakePlayerStore) ClearMainAccount(ctx context.Context, db bun.IDB, playerID string) error {
	f.record("ClearMainAccount:" + playerID)
	if f.ClearMainFunc != nil {
		return f.ClearMainFunc(ctx, db, playerID)
	}
	if p, ok := f.players[playerID]; ok {
		p.MainAccount = nil
	}
	return nil
}

func (f *FakePlayerStore) RemoveAlt(ctx context.Context, db bun.IDB, playerID, altID string) error {
	f.record("RemoveAlt:" + playerID)
	if f.RemoveAltFunc != nil {
		return f.RemoveAltFunc(ctx, db, playerID, altID)
	}
	if p, ok := f.players[playerID]; ok {
		p.AltAccounts = slices.DeleteFunc(p.AltAccounts, func(id string) bool { return id == altID })
	}
	return nil
}

func (f *FakePlayerStore) Events(playerID string) []string {
	return slices.Clone(f.players[playerID].Events)
}

func (f *FakePlayerStore) Trace() []string {
	return slices.Clone(f.trace)
}

var _ PlayerStore = (*FakePlayerStore)(nil)
