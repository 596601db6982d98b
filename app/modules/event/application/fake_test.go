package eventservice

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	mentionservice "github.com/tnt-tag-history/tnt-history/app/modules/mention/application"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Event Repo
// ------------------------

type FakeEventRepo struct {
	trace []string

	ListFunc     func(ctx context.Context, db bun.IDB, filter eventdb.ListFilter) ([]*eventdb.Event, error)
	GetByIDFunc  func(ctx context.Context, db bun.IDB, id string) (*eventdb.Event, error)
	CreateFunc   func(ctx context.Context, db bun.IDB, event *eventdb.Event) error
	UpdateFunc   func(ctx context.Context, db bun.IDB, event *eventdb.Event) error
	DeleteFunc   func(ctx context.Context, db bun.IDB, id string) error
	ListTagsFunc func(ctx context.Context, db bun.IDB) ([]string, error)
}

func NewFakeEventRepo() *FakeEventRepo {
	return &FakeEventRepo{trace: []string{}}
}

func (f *FakeEventRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeEventRepo) List(ctx context.Context, db bun.IDB, filter eventdb.ListFilter) ([]*eventdb.Event, error) {
	f.record("List")
	if f.ListFunc != nil {
		return f.ListFunc(ctx, db, filter)
	}
	return []*eventdb.Event{}, nil
}

func (f *FakeEventRepo) GetByID(ctx context.Context, db bun.IDB, id string) (*eventdb.Event, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, db, id)
	}
	return nil, eventdb.ErrNotFound
}

func (f *FakeEventRepo) Create(ctx context.Context, db bun.IDB, event *eventdb.Event) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, db, event)
	}
	return nil
}

func (f *FakeEventRepo) Update(ctx context.Context, db bun.IDB, event *eventdb.Event) error {
	f.record("Update")
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, db, event)
	}
	return nil
}

func (f *FakeEventRepo) Delete(ctx context.Context, db bun.IDB, id string) error {
	f.record("Delete")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, db, id)
	}
	return nil
}

func (f *FakeEventRepo) ListTags(ctx context.Context, db bun.IDB) ([]string, error) {
	f.record("ListTags")
	if f.ListTagsFunc != nil {
		return f.ListTagsFunc(ctx, db)
	}
	return []string{}, nil
}

func (f *FakeEventRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ eventdb.Repository = (*FakeEventRepo)(nil)

// ------------------------
// Fake Indexer
// ------------------------

type FakeIndexer struct {
	trace []string

	OnEventCreatedFunc func(ctx context.Context, event *eventdb.Event) (*mentionservice.FanOutResult, error)
	OnEventUpdatedFunc func(ctx context.Context, oldEvent, newEvent *eventdb.Event) (*mentionservice.FanOutResult, error)
	OnEventDeletedFunc func(ctx context.Context, event *eventdb.Event) (*mentionservice.FanOutResult, error)
}

func NewFakeIndexer() *FakeIndexer {
	return &FakeIndexer{trace: []string{}}
}

func (f *FakeIndexer) OnEventCreated(ctx context.Context, event *eventdb.Event) (*mentionservice.FanOutResult, error) {
	f.trace = append(f.trace, "OnEventCreated")
	if f.OnEventCreatedFunc != nil {
		return f.OnEventCreatedFunc(ctx, event)
	}
	return &mentionservice.FanOutResult{EventID: event.ID}, nil
}

func (f *FakeIndexer) OnEventUpdated(ctx context.Context, oldEvent, newEvent *eventdb.Event) (*mentionservice.FanOutResult, error) {
	f.trace = append(f.trace, "OnEventUpdated")
	if f.OnEventUpdatedFunc != nil {
		return f.OnEventUpdatedFunc(ctx, oldEvent, newEvent)
	}
	return &mentionservice.FanOutResult{EventID: newEvent.ID}, nil
}

func (f *FakeIndexer) OnEventDeleted(ctx context.Context, event *eventdb.Event) (*mentionservice.FanOutResult, error) {
	f.trace = append(f.trace, "OnEventDeleted")
	if f.OnEventDeletedFunc != nil {
		return f.OnEventDeletedFunc(ctx, event)
	}
	return &mentionservice.FanOutResult{EventID: event.ID}, nil
}

func (f *FakeIndexer) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ Indexer = (*FakeIndexer)(nil)

// ------------------------
// Fake Publisher
// ------------------------

type FakePublisher struct {
	mu       sync.Mutex
	messages map[string][]*message.Message

	PublishFunc func(topic string, msgs ...*message.Message) error
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{messages: map[string][]*message.Message{}}
}

func (f *FakePublisher) Publish(topic string, msgs ...*message.Message) error {
	if f.PublishFunc != nil {
		if err := f.PublishFunc(topic, msgs...); err != nil {
			return err
		}
	}
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
