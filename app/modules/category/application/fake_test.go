package categoryservice

import (
	"context"

	categorydb "github.com/tnt-tag-history/tnt-history/app/modules/category/infrastructure/repositories"
	"github.com/uptrace/bun"
)

type FakeCategoryRepo struct {
	trace []string

	ListFunc   func(ctx context.Context, db bun.IDB) ([]*categorydb.Category, error)
	UpsertFunc func(ctx context.Context, db bun.IDB, category *categorydb.Category) error
	DeleteFunc func(ctx context.Context, db bun.IDB, name string) error
}

func NewFakeCategoryRepo() *FakeCategoryRepo {
	return &FakeCategoryRepo{trace: []string{}}
}

func (f *FakeCategoryRepo) List(ctx context.Context, db bun.IDB) ([]*categorydb.Category, error) {
	f.trace = append(f.trace, "List")
	if f.ListFunc != nil {
		return f.ListFunc(ctx, db)
	}
	return []*categorydb.Category{}, nil
}

func (f *FakeCategoryRepo) Upsert(ctx context.Context, db bun.IDB, category *categorydb.Category) error {
	f.trace = append(f.trace, "Upsert")
	if f.UpsertFunc != nil {
		return f.UpsertFunc(ctx, db, category)
	}
	return nil
}

func (f *FakeCategoryRepo) Delete(ctx context.Context, db bun.IDB, name string) error {
	f.trace = append(f.trace, "Delete")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, db, name)
	}
	return nil
}

func (f *FakeCategoryRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ categorydb.Repository = (*FakeCategoryRepo)(nil)
