package discovery

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/service-marketplace-api/internal/model"
	"github.com/iliyamo/service-marketplace-api/internal/repository"
)

// fakeProviders serves the same verified rows for every service.
type fakeProviders struct {
	rows []repository.ProviderOfService
}

func (s *fakeProviders) ListProvidersOfService(_ context.Context, _ uint64) ([]repository.ProviderOfService, error) {
	return s.rows, nil
}

func (s *fakeProviders) ListVerifiedProviders(_ context.Context) ([]repository.ProviderOfService, error) {
	return s.rows, nil
}

type fakeProfiles struct {
	profiles map[uint64]model.Profile
}

func (s *fakeProfiles) GetProfileByUserID(_ context.Context, userID uint64) (model.Profile, error) {
	if p, ok := s.profiles[userID]; ok {
		return p, nil
	}
	return model.Profile{}, repository.ErrNotFound
}

func row(providerID, serviceID uint64, rating float64, count uint32, lat, long string) repository.ProviderOfService {
	return repository.ProviderOfService{
		ProviderID: providerID, ServiceID: serviceID,
		AvgRating: rating, ReviewCount: count,
		Latitude: lat, Longitude: long,
	}
}

func consumerAt(id uint64, lat, long string) *fakeProfiles {
	return &fakeProfiles{profiles: map[uint64]model.Profile{
		id: {UserID: id, Latitude: lat, Longitude: long},
	}}
}

func TestHaversineKm(t *testing.T) {
	// One degree of latitude is roughly 111.19 km.
	d := HaversineKm(35.0, 51.0, 36.0, 51.0)
	assert.InDelta(t, 111.19, d, 0.1)

	// A hundredth of a degree is roughly 1.11 km.
	d = HaversineKm(35.0, 51.0, 35.01, 51.0)
	assert.InDelta(t, 1.11, d, 0.01)

	assert.Zero(t, HaversineKm(35.0, 51.0, 35.0, 51.0))
}

func TestHaversineKm_NaNInput(t *testing.T) {
	d := HaversineKm(35.0, 51.0, math.NaN(), 51.0)
	assert.True(t, math.IsInf(d, 1))

	d = HaversineKm(math.NaN(), math.NaN(), 36.0, 51.0)
	assert.True(t, math.IsInf(d, 1))
}

func TestClampThreshold(t *testing.T) {
	assert.Equal(t, 3.0, ClampThreshold(1))
	assert.Equal(t, 3.0, ClampThreshold(3))
	assert.Equal(t, 10.0, ClampThreshold(10))
	assert.Equal(t, 30.0, ClampThreshold(30))
	assert.Equal(t, 30.0, ClampThreshold(100))
}

func TestParseCoords(t *testing.T) {
	lat, long, ok := ParseCoords("35.6892", "51.3890")
	require.True(t, ok)
	assert.InDelta(t, 35.6892, lat, 1e-9)
	assert.InDelta(t, 51.3890, long, 1e-9)

	_, _, ok = ParseCoords("", "51.3890")
	assert.False(t, ok)
	_, _, ok = ParseCoords("35.6892", "east")
	assert.False(t, ok)
}

func TestFilterByDistance(t *testing.T) {
	providers := &fakeProviders{rows: []repository.ProviderOfService{
		row(10, 1, 4.5, 12, "35.01", "51.0"), // ~1.11 km away
		row(11, 1, 4.0, 8, "36.0", "51.0"),   // ~111 km away
		row(12, 1, 3.5, 2, "bad", "51.0"),    // unparsable, dropped
	}}
	f := NewFinder(providers, consumerAt(1, "35.0", "51.0"))

	out, err := f.FilterByDistance(context.Background(), 1, 1, 5)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, uint64(10), out[0].ProviderID)
	assert.Equal(t, "1.11 km", out[0].Distance)
}

func TestFilterByDistance_ConsumerWithoutProfile(t *testing.T) {
	f := NewFinder(&fakeProviders{}, &fakeProfiles{profiles: map[uint64]model.Profile{}})

	_, err := f.FilterByDistance(context.Background(), 1, 1, 5)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFilterByDistance_UnparsableConsumerLocation(t *testing.T) {
	providers := &fakeProviders{rows: []repository.ProviderOfService{
		row(10, 1, 4.5, 12, "35.01", "51.0"),
	}}
	f := NewFinder(providers, consumerAt(1, "", ""))

	// Every distance is infinite, so nothing makes the cut.
	out, err := f.FilterByDistance(context.Background(), 1, 1, 30)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestListOfService_AnonymousGetsRawRows(t *testing.T) {
	providers := &fakeProviders{rows: []repository.ProviderOfService{
		row(10, 1, 4.5, 12, "35.01", "51.0"),
		row(12, 1, 3.5, 2, "bad", "51.0"),
	}}
	f := NewFinder(providers, &fakeProfiles{profiles: map[uint64]model.Profile{}})

	out, err := f.ListOfService(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Empty(t, out[0].Distance)
	assert.Empty(t, out[1].Distance)
}

func TestListOfService_KnownConsumerGetsDistances(t *testing.T) {
	providers := &fakeProviders{rows: []repository.ProviderOfService{
		row(10, 1, 4.5, 12, "35.01", "51.0"),
		row(12, 1, 3.5, 2, "bad", "51.0"),
	}}
	f := NewFinder(providers, consumerAt(7, "35.0", "51.0"))

	out, err := f.ListOfService(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "1.11 km", out[0].Distance)
}

func TestListOfService_ConsumerWithoutProfileFallsBack(t *testing.T) {
	providers := &fakeProviders{rows: []repository.ProviderOfService{
		row(10, 1, 4.5, 12, "35.01", "51.0"),
	}}
	f := NewFinder(providers, &fakeProfiles{profiles: map[uint64]model.Profile{}})

	out, err := f.ListOfService(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Distance)
}

func TestDedupBestService(t *testing.T) {
	rows := []repository.ProviderOfService{
		row(10, 1, 4.0, 5, "35.0", "51.0"),
		row(10, 2, 4.5, 2, "35.0", "51.0"), // higher rating wins
		row(11, 1, 3.0, 9, "36.0", "51.0"),
		row(11, 2, 3.0, 11, "36.0", "51.0"), // equal rating, more reviews wins
	}
	out := DedupBestService(rows)
	require.Len(t, out, 2)
	assert.Equal(t, uint64(2), out[0].ServiceID)
	assert.Equal(t, 4.5, out[0].AvgRating)
	assert.Equal(t, uint32(11), out[1].ReviewCount)
}

func TestTopOfArea(t *testing.T) {
	providers := &fakeProviders{rows: []repository.ProviderOfService{
		row(10, 1, 4.5, 12, "35.01", "51.0"), // ~1.11 km
		row(11, 1, 4.0, 8, "35.02", "51.0"),  // ~2.22 km
		row(12, 1, 5.0, 3, "35.05", "51.0"),  // ~5.56 km
		row(13, 1, 3.0, 1, "35.2", "51.0"),   // ~22 km, pushed out by closer three
	}}
	f := NewFinder(providers, consumerAt(1, "35.0", "51.0"))

	out, err := f.TopOfArea(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, uint64(10), out[0].ProviderID)
	assert.Equal(t, uint64(11), out[1].ProviderID)
	assert.Equal(t, uint64(12), out[2].ProviderID)
	assert.Equal(t, "1.11 km", out[0].Distance)
}

func TestTopOfArea_DedupsProviders(t *testing.T) {
	providers := &fakeProviders{rows: []repository.ProviderOfService{
		row(10, 1, 4.0, 5, "35.01", "51.0"),
		row(10, 2, 4.8, 2, "35.01", "51.0"),
	}}
	f := NewFinder(providers, consumerAt(1, "35.0", "51.0"))

	out, err := f.TopOfArea(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, uint64(2), out[0].ServiceID)
}

func TestTopOfArea_AnonymousFallsBackToRating(t *testing.T) {
	providers := &fakeProviders{rows: []repository.ProviderOfService{
		row(10, 1, 3.0, 5, "35.01", "51.0"),
		row(11, 1, 5.0, 2, "40.0", "51.0"),
		row(12, 1, 4.0, 7, "36.0", "51.0"),
		row(13, 1, 2.0, 1, "35.0", "51.0"),
	}}
	f := NewFinder(providers, &fakeProfiles{profiles: map[uint64]model.Profile{}})

	out, err := f.TopOfArea(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, uint64(11), out[0].ProviderID)
	assert.Equal(t, uint64(12), out[1].ProviderID)
	assert.Equal(t, uint64(10), out[2].ProviderID)
	assert.Empty(t, out[0].Distance)
}
