// Package geo holds the distance, ETA and delivery-position helpers.
package geo

import (
	"math"
	"math/rand/v2"
	"sort"

	"feastfleet/models"
)

const (
	EarthRadiusKm   = 6371.0
	DefaultSpeedKmh = 25.0

	// Jitter is the largest random offset, in degrees, added to a simulated position.
	Jitter = 0.0005

	// Tracking progress: where a poll loop starts, how far it moves per
	// refresh and where it stops short of the customer's door.
	ProgressStart = 0.1
	ProgressStep  = 0.02
	ProgressMax   = 0.95
)

// DefaultLocation is used when a caller does not report where they are.
var DefaultLocation = models.Location{Lat: 12.9716, Lng: 77.5946}

// DistanceKm is the great-circle distance between two points given in degrees.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	φ1, φ2 := radians(lat1), radians(lat2)
	dφ := φ2 - φ1
	dλ := radians(lng2) - radians(lng1)

	a := math.Pow(math.Sin(dφ/2), 2) + math.Cos(φ1)*math.Cos(φ2)*math.Pow(math.Sin(dλ/2), 2)
	// rounding can push a a hair above 1 for antipodal points
	a = math.Min(1, a)
	return 2 * math.Asin(math.Sqrt(a)) * EarthRadiusKm
}

// Between is DistanceKm over two locations.
func Between(a, b models.Location) float64 {
	return DistanceKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// ETAMinutes converts a distance into minutes at speedKmh and adds a
// preparation buffer: 10 minutes under 5 km, 15 from 5 km up. The result is
// truncated, not rounded.
func ETAMinutes(distanceKm, speedKmh float64) int {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeedKmh
	}
	travel := distanceKm / speedKmh * 60
	buffer := 15.0
	if distanceKm < 5 {
		buffer = 10
	}
	return int(travel + buffer)
}

// Interpolate moves progress of the way from start to end on each axis and
// then adds up to ±Jitter degrees of noise. progress is not clamped.
func Interpolate(start, end models.Location, progress float64, rng *rand.Rand) models.Location {
	lat := start.Lat + (end.Lat-start.Lat)*progress
	lng := start.Lng + (end.Lng-start.Lng)*progress
	return models.Location{
		Lat: lat + uniform(rng, -Jitter, Jitter),
		Lng: lng + uniform(rng, -Jitter, Jitter),
	}
}

// Nearby keeps the restaurants within radiusKm of user, annotates each with
// its distance rounded to two decimals and sorts them nearest first.
func Nearby(user models.Location, restaurants []models.Restaurant, radiusKm float64) []models.Restaurant {
	out := make([]models.Restaurant, 0, len(restaurants))
	for _, r := range restaurants {
		d := Between(user, r.Location)
		if d > radiusKm {
			continue
		}
		rounded := math.Round(d*100) / 100
		r.Distance = &rounded
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].Distance < *out[j].Distance
	})
	return out
}

// RandomLocationNear picks a point up to maxKm away from center on each
// axis, using 111 km per degree of latitude.
func RandomLocationNear(center models.Location, maxKm float64, rng *rand.Rand) models.Location {
	maxLat := maxKm / 111.0
	maxLng := maxKm / (111.0 * math.Abs(math.Cos(radians(center.Lat))))
	return models.Location{
		Lat: center.Lat + uniform(rng, -maxLat, maxLat),
		Lng: center.Lng + uniform(rng, -maxLng, maxLng),
	}
}

// Advance is one refresh of the tracking loop.
func Advance(progress float64) float64 {
	if progress <= 0 {
		return ProgressStart
	}
	return math.Min(progress+ProgressStep, ProgressMax)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if rng == nil {
		return lo + rand.Float64()*(hi-lo)
	}
	return lo + rng.Float64()*(hi-lo)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
