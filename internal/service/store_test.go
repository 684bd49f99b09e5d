package service

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/tillpoint/tillpoint/internal/api/dto"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/testutil"
)

type StoreServiceSuite struct {
	testutil.BaseServiceTestSuite
	service StoreService
}

func TestStoreService(t *testing.T) {
	suite.Run(t, new(StoreServiceSuite))
}

func (s *StoreServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewStoreService(newTestParams(&s.BaseServiceTestSuite))
}

func (s *StoreServiceSuite) TestCreateStore() {
	resp, err := s.service.CreateStore(s.GetContext(), dto.CreateStoreRequest{
		Name: "Corner Shop",
		Slug: "corner",
	})
	s.Require().NoError(err)
	s.Equal(s.GetConfig().Invoice.DefaultCurrency, resp.Currency)
	s.Equal("UTC", resp.Timezone)

	_, err = s.service.CreateStore(s.GetContext(), dto.CreateStoreRequest{
		Name: "Corner Shop Again",
		Slug: "corner",
	})
	s.True(ierr.IsAlreadyExists(err))

	_, err = s.service.CreateStore(s.GetContext(), dto.CreateStoreRequest{
		Name:     "Bad",
		Slug:     "bad",
		Timezone: "Mars/Olympus",
	})
	s.True(ierr.IsValidation(err))
}

func (s *StoreServiceSuite) TestGetStoreIsCached() {
	ctx := s.GetContext()
	created, err := s.service.CreateStore(ctx, dto.CreateStoreRequest{Name: "Cafe", Slug: "cafe", Currency: "eur"})
	s.Require().NoError(err)

	first, err := s.service.GetStore(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("eur", first.Currency)

	// a cached store survives the repository being emptied
	s.GetStores().StoreRepo.Clear()
	second, err := s.service.GetStore(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	// and callers cannot mutate the cached copy
	second.Name = "changed"
	third, err := s.service.GetStore(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Cafe", third.Name)
}

func (s *StoreServiceSuite) TestGetStoreBySlug() {
	ctx := s.GetContext()
	created, err := s.service.CreateStore(ctx, dto.CreateStoreRequest{Name: "Books", Slug: "books"})
	s.Require().NoError(err)

	resp, err := s.service.GetStoreBySlug(ctx, "books")
	s.Require().NoError(err)
	s.Equal(created.ID, resp.ID)

	_, err = s.service.GetStoreBySlug(ctx, "nope")
	var refErr *ierr.ReferenceNotFoundError
	s.Require().True(ierr.As(err, &refErr))
	s.Equal("store", refErr.Entity)

	_, err = s.service.GetStore(ctx, "")
	s.True(ierr.IsValidation(err))
}
