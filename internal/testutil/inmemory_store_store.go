package testutil

import (
	"context"

	"github.com/tillpoint/tillpoint/internal/domain/store"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
)

// InMemoryStoreStore implements store.Repository
type InMemoryStoreStore struct {
	*InMemoryStore[*store.Store]
}

func NewInMemoryStoreStore() *InMemoryStoreStore {
	return &InMemoryStoreStore{
		InMemoryStore: NewInMemoryStore[*store.Store](),
	}
}

func copyStore(s *store.Store) *store.Store {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func (s *InMemoryStoreStore) Create(ctx context.Context, st *store.Store) error {
	if st == nil {
		return ierr.NewError("store cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.CreateIf(ctx, st.ID, copyStore(st), func(existing *store.Store) error {
		if existing.Slug == st.Slug {
			return ierr.NewError("store slug already exists").
				WithHintf("A store with slug %s already exists", st.Slug).
				Mark(ierr.ErrAlreadyExists)
		}
		return nil
	})
}

func (s *InMemoryStoreStore) Get(ctx context.Context, id string) (*store.Store, error) {
	st, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Store %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyStore(st), nil
}

func (s *InMemoryStoreStore) GetBySlug(ctx context.Context, slug string) (*store.Store, error) {
	st, ok := s.InMemoryStore.Find(ctx, func(st *store.Store) bool {
		return st.Slug == slug
	})
	if !ok {
		return nil, ierr.NewError("store not found").
			WithHintf("Store %s not found", slug).
			Mark(ierr.ErrNotFound)
	}
	return copyStore(st), nil
}
