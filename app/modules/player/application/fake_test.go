package playerservice

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	mentionservice "github.com/tnt-tag-history/tnt-history/app/modules/mention/application"
	playeridentity "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/identity"
	playerdb "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/repositories"
	playerstats "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/stats"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Player Repo (in-memory)
// ------------------------

type FakePlayerRepo struct {
	trace   []string
	players map[string]*playerdb.Player

	GetByIDFunc func(ctx context.Context, db bun.IDB, id string) (*playerdb.Player, error)
	CreateFunc  func(ctx context.Context, db bun.IDB, player *playerdb.Player) error
	UpdateFunc  func(ctx context.Context, db bun.IDB, player *playerdb.Player) error
}

func NewFakePlayerRepo(players ...*playerdb.Player) *FakePlayerRepo {
	f := &FakePlayerRepo{trace: []string{}, players: map[string]*playerdb.Player{}}
	for _, p := range players {
		f.players[p.ID] = clonePlayer(p)
	}
	return f
}

func clonePlayer(p *playerdb.Player) *playerdb.Player {
	c := *p
	c.PastIGNs = slices.Clone(p.PastIGNs)
	c.Events = slices.Clone(p.Events)
	c.AltAccounts = slices.Clone(p.AltAccounts)
	if p.MainAccount != nil {
		m := *p.MainAccount
		c.MainAccount = &m
	}
	return &c
}

func (f *FakePlayerRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakePlayerRepo) Stored(id string) *playerdb.Player {
	if p, ok := f.players[id]; ok {
		return clonePlayer(p)
	}
	return nil
}

func (f *FakePlayerRepo) GetByID(ctx context.Context, db bun.IDB, id string) (*playerdb.Player, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, db, id)
	}
	if p, ok := f.players[id]; ok {
		return clonePlayer(p), nil
	}
	return nil, playerdb.ErrNotFound
}

func (f *FakePlayerRepo) FindByIGN(ctx context.Context, db bun.IDB, ign string) (*playerdb.Player, error) {
	f.record("FindByIGN")
	for _, p := range f.players {
		if strings.EqualFold(p.CurrentIGN, ign) {
			return clonePlayer(p), nil
		}
	}
	for _, p := range f.players {
		for _, past := range p.PastIGNs {
			if strings.EqualFold(past.Name, ign) {
				return clonePlayer(p), nil
			}
		}
	}
	return nil, playerdb.ErrNotFound
}

func (f *FakePlayerRepo) FindByUUID(ctx context.Context, db bun.IDB, uuid string) (*playerdb.Player, error) {
	f.record("FindByUUID")
	for _, p := range f.players {
		if p.UUID == uuid {
			return clonePlayer(p), nil
		}
	}
	return nil, playerdb.ErrNotFound
}

func (f *FakePlayerRepo) List(ctx context.Context, db bun.IDB) ([]*playerdb.Player, error) {
	f.record("List")
	out := make([]*playerdb.Player, 0, len(f.players))
	for _, p := range f.players {
		out = append(out, clonePlayer(p))
	}
	slices.SortFunc(out, func(a, b *playerdb.Player) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (f *FakePlayerRepo) Create(ctx context.Context, db bun.IDB, player *playerdb.Player) error {
	f.record("Create")
	if f.CreateFunc != nil {
		if err := f.CreateFunc(ctx, db, player); err != nil {
			return err
		}
	}
	f.players[player.ID] = clonePlayer(player)
	return nil
}

func (f *FakePlayerRepo) Update(ctx context.Context, db bun.IDB, player *playerdb.Player) error {
	f.record("Update")
	if f.UpdateFunc != nil {
		if err := f.UpdateFunc(ctx, db, player); err != nil {
			return err
		}
	}
	existing, ok := f.players[player.ID]
	if !ok {
		return playerdb.ErrNotFound
	}
	updated := clonePlayer(player)
	updated.Events = existing.Events
	f.players[player.ID] = updated
	return nil
}

func (f *FakePlayerRepo) Delete(ctx context.Context, db bun.IDB, id string) error {
	f.record("Delete")
	if _, ok := f.players[id]; !ok {
		return playerdb.ErrNotFound
	}
	delete(f.players, id)
	return nil
}

func (f *FakePlayerRepo) AppendEvent(ctx context.Context, db bun.IDB, playerID, eventID string) error {
	f.record("AppendEvent")
	if p, ok := f.players[playerID]; ok && !slices.Contains(p.Events, eventID) {
		p.Events = append(p.Events, eventID)
	}
	return nil
}

func (f *FakePlayerRepo) RemoveEvent(ctx context.Context, db bun.IDB, playerID, eventID string) error {
	f.record("RemoveEvent")
	if p, ok := f.players[playerID]; ok {
		p.Events = slices.DeleteFunc(p.Events, func(e string) bool { return e == eventID })
	}
	return nil
}

func (f *FakePlayerRepo) SetEvents(ctx context.Context, db bun.IDB, playerID string, eventIDs []string) error {
	f.record("SetEvents")
	if p, ok := f.players[playerID]; ok {
		p.Events = slices.Clone(eventIDs)
		return nil
	}
	return playerdb.ErrNotFound
}

func (f *FakePlayerRepo) ClearMainAccount(ctx context.Context, db bun.IDB, playerID string) error {
	f.record("ClearMainAccount")
	if p, ok := f.players[playerID]; ok {
		p.MainAccount = nil
	}
	return nil
}

func (f *FakePlayerRepo) AddAlt(ctx context.Context, db bun.IDB, playerID, altID string) error {
	f.record("AddAlt")
	if p, ok := f.players[playerID]; ok && !slices.Contains(p.AltAccounts, altID) {
		p.AltAccounts = append(p.AltAccounts, altID)
	}
	return nil
}

func (f *FakePlayerRepo) RemoveAlt(ctx context.Context, db bun.IDB, playerID, altID string) error {
	f.record("RemoveAlt")
	if p, ok := f.players[playerID]; ok {
		p.AltAccounts = slices.DeleteFunc(p.AltAccounts, func(a string) bool { return a == altID })
	}
	return nil
}

func (f *FakePlayerRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ playerdb.Repository = (*FakePlayerRepo)(nil)

// ------------------------
// Fake collaborators
// ------------------------

type FakeEventReader map[string]*eventdb.Event

func (f FakeEventReader) GetByID(ctx context.Context, db bun.IDB, id string) (*eventdb.Event, error) {
	if e, ok := f[id]; ok {
		return e, nil
	}
	return nil, eventdb.ErrNotFound
}

type FakeIdentity struct {
	calls []string

	ProfileByNameFunc func(ctx context.Context, name string) (*playeridentity.Profile, error)
	ProfileByUUIDFunc func(ctx context.Context, uuid string) (*playeridentity.Profile, error)
}

func (f *FakeIdentity) ProfileByName(ctx context.Context, name string) (*playeridentity.Profile, error) {
	f.calls = append(f.calls, "ProfileByName:"+name)
	if f.ProfileByNameFunc != nil {
		return f.ProfileByNameFunc(ctx, name)
	}
	return nil, playeridentity.ErrProfileNotFound
}

func (f *FakeIdentity) ProfileByUUID(ctx context.Context, uuid string) (*playeridentity.Profile, error) {
	f.calls = append(f.calls, "ProfileByUUID:"+uuid)
	if f.ProfileByUUIDFunc != nil {
		return f.ProfileByUUIDFunc(ctx, uuid)
	}
	return nil, playeridentity.ErrProfileNotFound
}

type FakeStats struct {
	enabled bool
	stats   *playerstats.TNTStats
	err     error
}

func (f *FakeStats) Enabled() bool { return f.enabled }

func (f *FakeStats) TNTGames(ctx context.Context, uuid string) (*playerstats.TNTStats, error) {
	return f.stats, f.err
}

type FakeCascader struct {
	calls []string
	err   error
}

func (f *FakeCascader) CascadePlayerDeleted(ctx context.Context, player *playerdb.Player) (*mentionservice.CascadeResult, error) {
	f.calls = append(f.calls, player.ID)
	if f.err != nil {
		return nil, f.err
	}
	return &mentionservice.CascadeResult{PlayerID: player.ID, AltsCleared: player.AltAccounts}, nil
}

type FakePublisher struct {
	mu       sync.Mutex
	messages map[string][]*message.Message
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{messages: map[string][]*message.Message{}}
}

func (f *FakePublisher) Publish(topic string, msgs ...*message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[topic] = append(f.messages[topic], msgs...)
	return nil
}

func (f *FakePublisher) Close() error { return nil }

func (f *FakePublisher) Messages(topic string) []*message.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*message.Message(nil), f.messages[topic]...)
}

var _ message.Publisher = (*FakePublisher)(nil)
