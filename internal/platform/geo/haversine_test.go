package geo

import (
	"math"
	"testing"
)

var (
	london = Point{Lat: 51.5074, Lon: -0.1278}
	madrid = Point{Lat: 40.4168, Lon: -3.7038}
)

func TestDistance_LondonMadrid(t *testing.T) {
	got := Distance(london, madrid)
	if math.Abs(got-1264) > 5 {
		t.Fatalf("unexpected London-Madrid distance: %.2f km", got)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	points := []Point{
		london,
		madrid,
		{Lat: 45.4781, Lon: 9.1240},
		{Lat: -34.6345, Lon: -58.3650},
		{Lat: 0, Lon: 179.9},
		{Lat: 0, Lon: -179.9},
	}
	for _, a := range points {
		for _, b := range points {
			if Distance(a, b) != Distance(b, a) {
				t.Fatalf("distance not symmetric for %+v and %+v", a, b)
			}
		}
	}
}

func TestDistance_IdenticalPointsIsZero(t *testing.T) {
	if got := Distance(madrid, madrid); got != 0 {
		t.Fatalf("expected 0 for identical points, got %v", got)
	}
}

func TestDistance_AntimeridianIsShort(t *testing.T) {
	got := Distance(Point{Lat: 0, Lon: 179.9}, Point{Lat: 0, Lon: -179.9})
	if got > 25 {
		t.Fatalf("expected short hop across the antimeridian, got %.2f km", got)
	}
}
