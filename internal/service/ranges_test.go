package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"faves_sorter/internal/config"
	"faves_sorter/internal/domain"
	"faves_sorter/internal/service/mocks"
)

type RangeTrackerTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *mocks.MockRangeStore
	tracker *RangeTracker
	ownerID string
	now     time.Time
}

func (s *RangeTrackerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockRangeStore(s.ctrl)
	s.tracker = NewRangeTracker(s.store, config.SyncConfig{PageSize: 20})
	s.now = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s.tracker.now = func() time.Time { return s.now }
	s.ownerID = domain.NewID()
}

func (s *RangeTrackerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestRangeTrackerTestSuite(t *testing.T) {
	suite.Run(t, new(RangeTrackerTestSuite))
}

func (s *RangeTrackerTestSuite) TestRecord_EmptyIsNoop() {
	r, err := s.tracker.Record(context.Background(), s.ownerID, nil, domain.FetchQuery{}, nil, nil)

	s.Require().NoError(err)
	s.Nil(r)
}

func (s *RangeTrackerTestSuite) TestRecord_SpansItems() {
	items := mockFavorites(20)
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	r, err := s.tracker.Record(context.Background(), s.ownerID, items, domain.FetchQuery{}, nil, nil)

	s.Require().NoError(err)
	s.Equal(s.ownerID, r.OwnerID)
	s.Equal("0", r.StartID)
	s.Equal(items[0].CreatedAt, r.StartTime)
	s.Equal("19", r.EndID)
	s.Equal(items[19].CreatedAt, r.EndTime)
	s.Equal(s.now, r.CreatedAt)
	s.False(r.IsLast)
}

func (s *RangeTrackerTestSuite) TestRecord_IsLastRules() {
	cases := []struct {
		name   string
		count  int
		q      domain.FetchQuery
		isLast bool
	}{
		{"short without since_id", 5, domain.FetchQuery{}, true},
		{"short below max_id", 5, domain.FetchQuery{MaxID: "99"}, true},
		{"short with since_id", 5, domain.FetchQuery{SinceID: "99"}, false},
		{"full page", 20, domain.FetchQuery{}, false},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

			r, err := s.tracker.Record(context.Background(), s.ownerID, mockFavorites(tc.count), tc.q, nil, nil)

			s.Require().NoError(err)
			s.Equal(tc.isLast, r.IsLast)
		})
	}
}

func (s *RangeTrackerTestSuite) TestRecord_WithoutConsolidationKeepsNeighbours() {
	items := mockFavorites(10)
	above := &domain.Range{ID: domain.NewID(), StartID: "x", EndID: "0"}
	below := &domain.Range{ID: domain.NewID(), StartID: "10"}
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	r, err := s.tracker.Record(context.Background(), s.ownerID, items[1:], domain.FetchQuery{MaxID: "0", SinceID: "10"}, above, below)

	s.Require().NoError(err)
	s.Equal("1", r.StartID)
	s.Equal("9", r.EndID)
}

func (s *RangeTrackerTestSuite) TestRecord_ConsolidatesAbove() {
	s.tracker.consolidate = true
	items := mockFavorites(30)
	above := &domain.Range{ID: domain.NewID(), OwnerID: s.ownerID, StartID: "0", StartTime: items[0].CreatedAt, EndID: "4", EndTime: items[4].CreatedAt}

	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.store.EXPECT().Delete(gomock.Any(), s.ownerID, []string{above.ID}).Return(nil)

	r, err := s.tracker.Record(context.Background(), s.ownerID, items[5:25], domain.FetchQuery{MaxID: "4"}, above, nil)

	s.Require().NoError(err)
	s.Equal("0", r.StartID)
	s.Equal("24", r.EndID)
	s.False(r.IsLast)
}

func (s *RangeTrackerTestSuite) TestRecord_FullPageDoesNotReachBelow() {
	s.tracker.consolidate = true
	items := mockFavorites(30)
	below := &domain.Range{ID: domain.NewID(), StartID: "29"}

	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	r, err := s.tracker.Record(context.Background(), s.ownerID, items[:20], domain.FetchQuery{SinceID: "29"}, nil, below)

	s.Require().NoError(err)
	s.Equal("19", r.EndID)
}

func (s *RangeTrackerTestSuite) TestRecord_ConsolidatesBelowInheritsIsLast() {
	s.tracker.consolidate = true
	items := mockFavorites(10)
	below := &domain.Range{
		ID:      domain.NewID(),
		OwnerID: s.ownerID,
		StartID: "5", StartTime: items[5].CreatedAt,
		EndID: "9", EndTime: items[9].CreatedAt,
		IsLast: true,
	}

	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.store.EXPECT().Delete(gomock.Any(), s.ownerID, []string{below.ID}).Return(nil)

	r, err := s.tracker.Record(context.Background(), s.ownerID, items[:5], domain.FetchQuery{SinceID: "5"}, nil, below)

	s.Require().NoError(err)
	s.Equal("0", r.StartID)
	s.Equal("9", r.EndID)
	s.True(r.IsLast)
}

func (s *RangeTrackerTestSuite) TestMarkLast() {
	r := &domain.Range{ID: domain.NewID(), OwnerID: s.ownerID}
	s.store.EXPECT().MarkLast(gomock.Any(), s.ownerID, r.ID).Return(nil)

	s.Require().NoError(s.tracker.MarkLast(context.Background(), r))
	s.True(r.IsLast)

	// already last: no store call
	s.Require().NoError(s.tracker.MarkLast(context.Background(), r))
}
