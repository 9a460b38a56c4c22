// Package discovery ranks verified providers for a consumer by great-circle
// distance and rating. Coordinates live as decimal strings on profiles; a
// value that does not parse yields an infinite distance, which silently
// drops the candidate from any distance-based result.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/iliyamo/service-marketplace-api/internal/model"
	"github.com/iliyamo/service-marketplace-api/internal/repository"
)

// Threshold bounds for the distance filter, in kilometers. Callers clamp
// the client-supplied value into this range before filtering.
const (
	MinThresholdKm = 3
	MaxThresholdKm = 30
)

// TopCount is how many providers the top-of-area ranking returns.
const TopCount = 3

const earthRadiusKm = 6371

// ProviderStore supplies the verified provider-service join rows.
type ProviderStore interface {
	ListProvidersOfService(ctx context.Context, serviceID uint64) ([]repository.ProviderOfService, error)
	ListVerifiedProviders(ctx context.Context) ([]repository.ProviderOfService, error)
}

// ProfileStore resolves a consumer's stored location.
type ProfileStore interface {
	GetProfileByUserID(ctx context.Context, userID uint64) (model.Profile, error)
}

// Finder computes distance-annotated provider listings.
type Finder struct {
	providers ProviderStore
	profiles  ProfileStore
}

func NewFinder(providers ProviderStore, profiles ProfileStore) *Finder {
	return &Finder{providers: providers, profiles: profiles}
}

// Ranked is a provider-service row annotated with the distance to the
// requesting consumer, formatted for display. Distance is empty when no
// consumer location was available.
type Ranked struct {
	repository.ProviderOfService
	Distance string `json:"distance,omitempty"`

	distanceKm float64
}

// ParseCoords converts a stored latitude/longitude string pair into
// numbers. Either value failing to parse marks the pair unusable.
func ParseCoords(lat, long string) (float64, float64, bool) {
	la, err1 := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	lo, err2 := strconv.ParseFloat(strings.TrimSpace(long), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return la, lo, true
}

// HaversineKm returns the great-circle distance in kilometers between two
// coordinate pairs. Any NaN input yields +Inf so the candidate drops out
// of thresholded and ranked results.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	if math.IsNaN(lat1) || math.IsNaN(lon1) || math.IsNaN(lat2) || math.IsNaN(lon2) {
		return math.Inf(1)
	}
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// ClampThreshold forces a client-supplied distance threshold into the
// supported [3, 30] km window.
func ClampThreshold(km float64) float64 {
	return math.Min(MaxThresholdKm, math.Max(km, MinThresholdKm))
}

// formatKm renders a distance the way the filter endpoints always have:
// two decimals with trailing zeros dropped, e.g. "1.1 km", "111 km".
func formatKm(d float64) string {
	s := fmt.Sprintf("%.2f", d)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s + " km"
}

// consumerCoords loads a consumer profile and parses its location. NaN
// coordinates are returned when the stored strings do not parse, which
// pushes every computed distance to +Inf.
func (f *Finder) consumerCoords(ctx context.Context, consumerID uint64) (float64, float64, error) {
	p, err := f.profiles.GetProfileByUserID(ctx, consumerID)
	if err != nil {
		return 0, 0, err
	}
	lat, long, ok := ParseCoords(p.Latitude, p.Longitude)
	if !ok {
		return math.NaN(), math.NaN(), nil
	}
	return lat, long, nil
}

// FilterByDistance returns the verified providers of a service within
// thresholdKm of the consumer's stored location, each annotated with its
// distance. Providers whose distance cannot be computed are excluded.
func (f *Finder) FilterByDistance(ctx context.Context, serviceID, consumerID uint64, thresholdKm float64) ([]Ranked, error) {
	cLat, cLong, err := f.consumerCoords(ctx, consumerID)
	if err != nil {
		return nil, err
	}
	rows, err := f.providers.ListProvidersOfService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	out := make([]Ranked, 0, len(rows))
	for _, row := range rows {
		pLat, pLong, ok := ParseCoords(row.Latitude, row.Longitude)
		if !ok {
			continue
		}
		dist := HaversineKm(cLat, cLong, pLat, pLong)
		if math.IsInf(dist, 1) || dist > thresholdKm {
			continue
		}
		out = append(out, Ranked{ProviderOfService: row, Distance: formatKm(dist), distanceKm: dist})
	}
	return out, nil
}

// ListOfService returns the verified providers of a service. With a known
// consumer each row is annotated with its distance and uncomputable rows
// are dropped; for anonymous callers (consumerID zero) or a consumer
// without a profile the raw rating-ordered listing is returned unchanged.
func (f *Finder) ListOfService(ctx context.Context, serviceID, consumerID uint64) ([]Ranked, error) {
	rows, err := f.providers.ListProvidersOfService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if consumerID == 0 {
		return plain(rows), nil
	}
	cLat, cLong, err := f.consumerCoords(ctx, consumerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return plain(rows), nil
		}
		return nil, err
	}
	out := make([]Ranked, 0, len(rows))
	for _, row := range rows {
		pLat, pLong, ok := ParseCoords(row.Latitude, row.Longitude)
		if !ok {
			continue
		}
		dist := HaversineKm(cLat, cLong, pLat, pLong)
		if math.IsInf(dist, 1) {
			continue
		}
		out = append(out, Ranked{ProviderOfService: row, Distance: formatKm(dist), distanceKm: dist})
	}
	return out, nil
}

// TopOfArea returns the three best providers for a consumer: nearest
// first, rating ascending as tie-break, computed over every verified
// provider-service row deduplicated to each provider's highest-rated
// service. Without a usable consumer (zero id or missing profile) the
// fallback is the top three by rating with no distance computation.
func (f *Finder) TopOfArea(ctx context.Context, consumerID uint64) ([]Ranked, error) {
	rows, err := f.providers.ListVerifiedProviders(ctx)
	if err != nil {
		return nil, err
	}
	rows = DedupBestService(rows)

	if consumerID == 0 {
		return topByRating(rows), nil
	}
	cLat, cLong, err := f.consumerCoords(ctx, consumerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return topByRating(rows), nil
		}
		return nil, err
	}

	ranked := make([]Ranked, 0, len(rows))
	for _, row := range rows {
		pLat, pLong, ok := ParseCoords(row.Latitude, row.Longitude)
		if !ok {
			continue
		}
		dist := HaversineKm(cLat, cLong, pLat, pLong)
		if math.IsInf(dist, 1) {
			continue
		}
		ranked = append(ranked, Ranked{ProviderOfService: row, Distance: fmt.Sprintf("%.2f km", dist), distanceKm: dist})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].distanceKm != ranked[j].distanceKm {
			return ranked[i].distanceKm < ranked[j].distanceKm
		}
		return ranked[i].AvgRating < ranked[j].AvgRating
	})
	if len(ranked) > TopCount {
		ranked = ranked[:TopCount]
	}
	return ranked, nil
}

// DedupBestService keeps a single row per provider: the service with the
// highest rating, review count breaking ties. Input order is preserved
// among the winners.
func DedupBestService(rows []repository.ProviderOfService) []repository.ProviderOfService {
	best := make(map[uint64]int, len(rows))
	out := make([]repository.ProviderOfService, 0, len(rows))
	for _, row := range rows {
		i, seen := best[row.ProviderID]
		if !seen {
			best[row.ProviderID] = len(out)
			out = append(out, row)
			continue
		}
		cur := out[i]
		if row.AvgRating > cur.AvgRating ||
			(row.AvgRating == cur.AvgRating && row.ReviewCount > cur.ReviewCount) {
			out[i] = row
		}
	}
	return out
}

func plain(rows []repository.ProviderOfService) []Ranked {
	out := make([]Ranked, 0, len(rows))
	for _, row := range rows {
		out = append(out, Ranked{ProviderOfService: row})
	}
	return out
}

func topByRating(rows []repository.ProviderOfService) []Ranked {
	sorted := make([]repository.ProviderOfService, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].AvgRating > sorted[j].AvgRating })
	if len(sorted) > TopCount {
		sorted = sorted[:TopCount]
	}
	return plain(sorted)
}
