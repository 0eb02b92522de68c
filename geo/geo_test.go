package geo

import (
	"math/rand/v2"
	"testing"

	"feastfleet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKm(t *testing.T) {
	assert.Zero(t, DistanceKm(12.97, 77.59, 12.97, 77.59))

	ab := DistanceKm(12.97, 77.59, 12.98, 77.60)
	ba := DistanceKm(12.98, 77.60, 12.97, 77.59)
	assert.InDelta(t, ab, ba, 1e-9)
	assert.InDelta(t, 1.55, ab, 0.02)

	// one degree of latitude along a meridian
	assert.InDelta(t, 111.19, DistanceKm(0, 0, 1, 0), 0.01)
}

func TestETAMinutes(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		speed    float64
		want     int
	}{
		{"zero distance", 0, 25, 10},
		{"just under five km", 4.9, 25, 21},
		{"five km uses the larger buffer", 5.0, 25, 27},
		{"truncates", 1.53, 25, 13},
		{"non-positive speed falls back", 5.0, 0, 27},
		{"custom speed", 10, 60, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ETAMinutes(tt.distance, tt.speed))
		})
	}
}

func TestInterpolate(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	start := models.Location{Lat: 12.97, Lng: 77.59}
	end := models.Location{Lat: 12.98, Lng: 77.60}

	for i := 0; i < 100; i++ {
		mid := Interpolate(start, end, 0.5, rng)
		assert.InDelta(t, 12.975, mid.Lat, Jitter)
		assert.InDelta(t, 77.595, mid.Lng, Jitter)
	}

	// progress outside [0,1] extrapolates
	beyond := Interpolate(start, end, 2, rng)
	assert.InDelta(t, 12.99, beyond.Lat, Jitter)
}

func TestNearby(t *testing.T) {
	user := models.Location{Lat: 12.97, Lng: 77.59}
	restaurants := []models.Restaurant{
		{ID: "rest1", Location: models.Location{Lat: 13.02, Lng: 77.59}},
		{ID: "rest2", Location: models.Location{Lat: 12.971, Lng: 77.591}},
		{ID: "rest3", Location: models.Location{Lat: 13.50, Lng: 77.59}},
		{ID: "rest4", Location: models.Location{Lat: 12.99, Lng: 77.59}},
	}

	got := Nearby(user, restaurants, 10)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"rest2", "rest4", "rest1"}, []string{got[0].ID, got[1].ID, got[2].ID})
	for i, r := range got {
		require.NotNil(t, r.Distance)
		assert.LessOrEqual(t, *r.Distance, 10.0)
		if i > 0 {
			assert.LessOrEqual(t, *got[i-1].Distance, *r.Distance)
		}
	}
	assert.Equal(t, 2.22, *got[1].Distance)

	// input is left untouched
	assert.Nil(t, restaurants[0].Distance)
	assert.Empty(t, Nearby(user, nil, 5))
}

func TestRandomLocationNear(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 200; i++ {
		p := RandomLocationNear(DefaultLocation, 5, rng)
		assert.InDelta(t, DefaultLocation.Lat, p.Lat, 5/111.0)
		assert.Less(t, Between(DefaultLocation, p), 5*1.5)
	}
}

func TestAdvance(t *testing.T) {
	p := Advance(0)
	assert.Equal(t, ProgressStart, p)
	p = Advance(p)
	assert.InDelta(t, 0.12, p, 1e-9)

	for i := 0; i < 100; i++ {
		p = Advance(p)
	}
	assert.Equal(t, ProgressMax, p)
}
