package directory

import (
	"context"
	"errors"

	"dappdir/internal/types"
)

func (s *UnitTestSuite) TestUpsertGetRoundTrip() {
	ctx := context.Background()
	data := sampleRecord("ignored", s.clock)
	data.Slug = "something-else"
	data.Twitter = "https://twitter.com/x"

	s.NoError(s.svc.Upsert(ctx, "uniswap", data))

	got, ok := s.svc.GetBySlug(ctx, "uniswap")
	s.True(ok)
	want := data
	want.Slug = "uniswap"
	s.Equal(want, *got)
	s.False(types.ParseTimestamp(got.UpdatedAt).Before(s.clock))
}

func (s *UnitTestSuite) TestGetMissingIsAbsent() {
	got, ok := s.svc.GetBySlug(context.Background(), "nope")
	s.False(ok)
	s.Nil(got)
}

func (s *UnitTestSuite) TestGetStoreErrorIsAbsent() {
	s.store.failGet = true
	got, ok := s.svc.GetBySlug(context.Background(), "nope")
	s.False(ok)
	s.Nil(got)
}

func (s *UnitTestSuite) TestDelete() {
	ctx := context.Background()
	s.NoError(s.svc.Upsert(ctx, "aave", sampleRecord("aave", s.clock)))
	s.NoError(s.svc.Upsert(ctx, "uniswap", sampleRecord("uniswap", s.clock)))

	s.NoError(s.svc.Delete(ctx, "aave"))

	_, ok := s.svc.GetBySlug(ctx, "aave")
	s.False(ok)
	for _, r := range s.svc.ListAll(ctx) {
		s.NotEqual("aave", r.Slug)
	}
	members, err := s.store.SetMembers(ctx, IndexKey)
	s.NoError(err)
	s.Equal([]string{"uniswap"}, members)
}

func (s *UnitTestSuite) TestListAllSortedByUpdatedAtDesc() {
	ctx := context.Background()
	s.NoError(s.svc.Upsert(ctx, "first", sampleRecord("first", s.clock)))
	s.tick()
	s.NoError(s.svc.Upsert(ctx, "second", sampleRecord("second", s.clock)))
	s.tick()
	s.NoError(s.svc.Upsert(ctx, "third", sampleRecord("third", s.clock)))
	s.tick()
	// Re-upserting the oldest moves it to the front.
	s.NoError(s.svc.Upsert(ctx, "first", sampleRecord("first", s.clock)))

	all := s.svc.ListAll(ctx)
	s.Len(all, 3)
	s.Equal([]string{"first", "third", "second"}, slugsOf(all))
}

func (s *UnitTestSuite) TestListAllSkipsDanglingIndexMembers() {
	ctx := context.Background()
	s.NoError(s.svc.Upsert(ctx, "kept", sampleRecord("kept", s.clock)))
	s.NoError(s.store.SetAdd(ctx, IndexKey, "ghost"))

	all := s.svc.ListAll(ctx)
	s.Equal([]string{"kept"}, slugsOf(all))
}

func (s *UnitTestSuite) TestListAllEmpty() {
	all := s.svc.ListAll(context.Background())
	s.NotNil(all)
	s.Empty(all)
}

func (s *UnitTestSuite) TestListAllDegradesOnStoreError() {
	ctx := context.Background()
	s.NoError(s.svc.Upsert(ctx, "kept", sampleRecord("kept", s.clock)))

	s.store.failMembers = true
	s.Empty(s.svc.ListAll(ctx))

	s.store.failMembers = false
	s.store.failGet = true
	s.Empty(s.svc.ListAll(ctx))
	s.Equal(types.Stats{LastUpdated: types.Timestamp(s.clock)}, s.svc.Stats(ctx))
}

func (s *UnitTestSuite) TestListAllDegradesOnCorruptRecord() {
	ctx := context.Background()
	s.NoError(s.svc.Upsert(ctx, "kept", sampleRecord("kept", s.clock)))
	s.NoError(s.store.Set(ctx, RecordKey("bad"), []byte("{not json")))
	s.NoError(s.store.SetAdd(ctx, IndexKey, "bad"))

	s.Empty(s.svc.ListAll(ctx))
}

func (s *UnitTestSuite) TestListFeatured() {
	ctx := context.Background()
	plain := sampleRecord("plain", s.clock)
	s.NoError(s.svc.Upsert(ctx, "plain", plain))
	s.tick()
	star := sampleRecord("star", s.clock)
	star.IsFeatured = true
	s.NoError(s.svc.Upsert(ctx, "star", star))
	s.tick()
	star2 := sampleRecord("star2", s.clock)
	star2.IsFeatured = true
	s.NoError(s.svc.Upsert(ctx, "star2", star2))

	s.Equal([]string{"star2", "star"}, slugsOf(s.svc.ListFeatured(ctx)))
}

func (s *UnitTestSuite) TestUpsertSecondStepFailureKeepsRecord() {
	ctx := context.Background()
	s.store.failSetAdd = true
	err := s.svc.Upsert(ctx, "orphan", sampleRecord("orphan", s.clock))
	s.Error(err)
	s.True(errors.Is(err, types.ErrDataStoreAccess))

	_, ok := s.svc.GetBySlug(ctx, "orphan")
	s.True(ok, "no rollback of the record write")
	s.Empty(s.svc.ListAll(ctx), "unindexed records are not listed")
	s.Empty(s.pub.events)
}

func (s *UnitTestSuite) TestUpsertFirstStepFailure() {
	s.store.failSet = true
	err := s.svc.Upsert(context.Background(), "x", sampleRecord("x", s.clock))
	s.True(errors.Is(err, types.ErrDataStoreAccess))
	members, _ := s.store.SetMembers(context.Background(), IndexKey)
	s.Empty(members)
}

func (s *UnitTestSuite) TestDeleteFailures() {
	ctx := context.Background()
	s.NoError(s.svc.Upsert(ctx, "x", sampleRecord("x", s.clock)))

	s.store.failDelete = true
	s.Error(s.svc.Delete(ctx, "x"))
	_, ok := s.svc.GetBySlug(ctx, "x")
	s.True(ok)

	s.store.failDelete = false
	s.store.failSetRemove = true
	s.Error(s.svc.Delete(ctx, "x"))
	_, ok = s.svc.GetBySlug(ctx, "x")
	s.False(ok)
	members, _ := s.store.SetMembers(ctx, IndexKey)
	s.Equal([]string{"x"}, members, "index entry dangles until the next delete")
	s.Empty(s.svc.ListAll(ctx))
}

func (s *UnitTestSuite) TestStatsZero() {
	st := s.svc.Stats(context.Background())
	s.Equal(0, st.TotalApps)
	s.Equal(0, st.TotalChains)
	s.Equal(0, st.TotalCategories)
	s.Equal(types.Timestamp(s.clock), st.LastUpdated)
}

func (s *UnitTestSuite) TestStatsFoldsChainCase() {
	ctx := context.Background()
	r := sampleRecord("a", s.clock)
	r.Chains = []string{"Ethereum", "ethereum"}
	r.Tags = []string{"DeFi", "defi"}
	s.NoError(s.svc.Upsert(ctx, "a", r))

	st := s.svc.Stats(ctx)
	s.Equal(1, st.TotalApps)
	s.Equal(1, st.TotalChains)
	s.Equal(2, st.TotalCategories, "tags are case-sensitive")

	r2 := sampleRecord("b", s.clock)
	r2.Chains = []string{"Polygon", "ETHEREUM"}
	r2.Tags = []string{"DeFi"}
	s.NoError(s.svc.Upsert(ctx, "b", r2))
	st = s.svc.Stats(ctx)
	s.Equal(2, st.TotalApps)
	s.Equal(2, st.TotalChains)
	s.Equal(2, st.TotalCategories)
}

func (s *UnitTestSuite) TestEventsPublishedAfterWrites() {
	ctx := context.Background()
	s.NoError(s.svc.Upsert(ctx, "a", sampleRecord("a", s.clock)))
	s.NoError(s.svc.Delete(ctx, "a"))

	s.Len(s.pub.events, 2)
	s.Contains(s.pub.events[0], EventUpserted)
	s.Contains(s.pub.events[0], `"slug":"a"`)
	s.Contains(s.pub.events[1], EventDeleted)
}

func (s *UnitTestSuite) TestPublishFailureDoesNotFailWrite() {
	s.pub.err = errBoom
	s.NoError(s.svc.Upsert(context.Background(), "a", sampleRecord("a", s.clock)))
}

func (s *UnitTestSuite) TestQuery() {
	ctx := context.Background()
	eth := sampleRecord("eth", s.clock)
	s.NoError(s.svc.Upsert(ctx, "eth", eth))
	s.tick()
	poly := sampleRecord("poly", s.clock)
	poly.Chains = []string{"Polygon"}
	poly.IsFeatured = true
	s.NoError(s.svc.Upsert(ctx, "poly", poly))

	f, err := CompileFilter("contains(chains, 'Polygon')")
	s.NoError(err)
	s.Equal([]string{"poly"}, slugsOf(s.svc.Query(ctx, f)))

	f, err = CompileFilter("isFeatured == `false`")
	s.NoError(err)
	s.Equal([]string{"eth"}, slugsOf(s.svc.Query(ctx, f)))

	f, err = CompileFilter("name")
	s.NoError(err)
	s.Empty(s.svc.Query(ctx, f), "non-boolean results never match")

	_, err = CompileFilter("contains(chains,")
	s.True(errors.Is(err, types.ErrInvalidRequest))
}

func (s *UnitTestSuite) TestSeed() {
	ctx := context.Background()
	s.NoError(s.svc.Seed(ctx))
	all := s.svc.ListAll(ctx)
	s.ElementsMatch([]string{"uniswap", "aave", "opensea"}, slugsOf(all))
	s.Len(s.svc.ListFeatured(ctx), 3)
}

func slugsOf(rs []types.Record) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Slug)
	}
	return out
}
