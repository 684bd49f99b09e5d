package service

import (
	"context"

	"github.com/tillpoint/tillpoint/internal/api/dto"
	"github.com/tillpoint/tillpoint/internal/cache"
	"github.com/tillpoint/tillpoint/internal/domain/store"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
)

type StoreService interface {
	CreateStore(ctx context.Context, req dto.CreateStoreRequest) (*dto.StoreResponse, error)
	GetStore(ctx context.Context, id string) (*dto.StoreResponse, error)
	GetStoreBySlug(ctx context.Context, slug string) (*dto.StoreResponse, error)
}

type storeService struct {
	ServiceParams
}

func NewStoreService(params ServiceParams) StoreService {
	return &storeService{
		ServiceParams: params,
	}
}

func (s *storeService) CreateStore(ctx context.Context, req dto.CreateStoreRequest) (*dto.StoreResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	st := req.ToStore(s.Config.Invoice.DefaultCurrency)
	if err := s.StoreRepo.Create(ctx, st); err != nil {
		return nil, err
	}

	s.Logger.Infow("created store",
		"store_id", st.ID,
		"slug", st.Slug,
	)

	return &dto.StoreResponse{Store: st}, nil
}

// GetStore resolves a store, serving repeated lookups from the cache
func (s *storeService) GetStore(ctx context.Context, id string) (*dto.StoreResponse, error) {
	if id == "" {
		return nil, ierr.NewError("store_id is required").
			WithHint("Store ID is required").
			Mark(ierr.ErrValidation)
	}

	key := cache.GenerateKey(cache.PrefixStore, id)
	if cached, ok := s.Cache.Get(ctx, key); ok {
		if st, ok := cached.(*store.Store); ok {
			c := *st
			return &dto.StoreResponse{Store: &c}, nil
		}
	}

	st, err := s.StoreRepo.Get(ctx, id)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewReferenceNotFound("store", id)
		}
		return nil, err
	}

	c := *st
	s.Cache.Set(ctx, key, &c, 0)
	return &dto.StoreResponse{Store: st}, nil
}

func (s *storeService) GetStoreBySlug(ctx context.Context, slug string) (*dto.StoreResponse, error) {
	key := cache.GenerateKey(cache.PrefixStoreSlug, slug)
	if cached, ok := s.Cache.Get(ctx, key); ok {
		if st, ok := cached.(*store.Store); ok {
			c := *st
			return &dto.StoreResponse{Store: &c}, nil
		}
	}

	st, err := s.StoreRepo.GetBySlug(ctx, slug)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewReferenceNotFound("store", slug)
		}
		return nil, err
	}

	c := *st
	s.Cache.Set(ctx, key, &c, 0)
	return &dto.StoreResponse{Store: st}, nil
}
