package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

func lonDiff(got, want float64) float64 {
	return math.Abs(math.Remainder(got-want, 360))
}

func TestLatLonAltRoundTrip(t *testing.T) {
	b := kerbinLike()
	for lat := -89.0; lat <= 89; lat += 8 {
		for lon := -165.0; lon <= 180; lon += 15 {
			for _, alt := range []float64{0, 75, 70000, 1.2e7} {
				pos := SurfacePosition(b, lat, lon, alt)
				got := GetLatLonAlt(b, pos)

				if relErr(got.Lat, lat) > 1e-6 {
					t.Fatalf("(%v,%v,%v): lat = %v", lat, lon, alt, got.Lat)
				}
				if lonDiff(got.Lon, lon) > 1e-6*math.Max(1, math.Abs(lon)) {
					t.Fatalf("(%v,%v,%v): lon = %v", lat, lon, alt, got.Lon)
				}
				if math.Abs(got.Alt-alt) > 1e-6*math.Max(1, alt) {
					t.Fatalf("(%v,%v,%v): alt = %v", lat, lon, alt, got.Alt)
				}
				if a := Altitude(b, pos); math.Abs(a-got.Alt) > 1e-6 {
					t.Fatalf("(%v,%v,%v): Altitude = %v, GetLatLonAlt alt = %v", lat, lon, alt, a, got.Alt)
				}
			}
		}
	}
}

func TestLatLonAltAtPoles(t *testing.T) {
	b := kerbinLike()
	for _, lat := range []float64{90, -90} {
		got := GetLatLonAlt(b, SurfacePosition(b, lat, 0, 500))
		if math.Abs(got.Lat-lat) > 1e-9 {
			t.Fatalf("pole lat = %v, want %v", got.Lat, lat)
		}
		if math.IsNaN(got.Lon) {
			t.Fatalf("pole lon is NaN")
		}
		if math.Abs(got.Alt-500) > 1e-6 {
			t.Fatalf("pole alt = %v, want 500", got.Alt)
		}
	}
}

func TestSphericalAndOblateAltitudeAgreeOnSphere(t *testing.T) {
	b := sphere(600000)
	b.center = mgl64.Vec3{1e6, 2e6, -3e6}
	b.frame = NewRotatingFrame(-0.7)

	for _, pos := range []mgl64.Vec3{
		{1.6e6, 2e6, -3e6},
		{1e6, 2.7e6, -3e6},
		{0.2e6, 1.5e6, -2.9e6},
		{1e6 + 1, 2e6, -3e6},
	} {
		spherical := SphericalAltitude(b, pos)
		if got := Altitude(b, pos); got != spherical {
			t.Fatalf("Altitude(%v) = %v, spherical = %v", pos, got, spherical)
		}
		if got := GetLatLonAlt(b, pos).Alt; math.Abs(got-spherical) > 1e-9 {
			t.Fatalf("GetLatLonAlt(%v).Alt = %v, spherical = %v", pos, got, spherical)
		}
	}
}

func TestOblateAltitudeGapApproachesPolarFlattening(t *testing.T) {
	b := kerbinLike()
	flattening := ShapeOf(b).A - ShapeOf(b).B

	prevGap := -1.0
	for _, lat := range []float64{0, 45, 80, 89, 89.9, 89.99} {
		pos := SurfacePosition(b, lat, 20, 1000)
		gap := Altitude(b, pos) - SphericalAltitude(b, pos)
		if gap < prevGap-1e-6 {
			t.Fatalf("gap shrank to %v at %v degrees", gap, lat)
		}
		prevGap = gap
	}
	if math.Abs(prevGap-flattening) > 1 {
		t.Fatalf("gap near the pole = %v, want ~%v", prevGap, flattening)
	}

	pos := SurfacePosition(b, 90, 0, 1000)
	if gap := Altitude(b, pos) - SphericalAltitude(b, pos); math.Abs(gap-flattening) > 1e-6 {
		t.Fatalf("gap at the pole = %v, want %v", gap, flattening)
	}
}

func TestGetLatLonAltAtCentre(t *testing.T) {
	b := kerbinLike()
	got := GetLatLonAlt(b, b.center)
	if got.Lat != 0 || got.Lon != 0 {
		t.Fatalf("centre lat/lon = (%v, %v), want (0, 0)", got.Lat, got.Lon)
	}
	if got.Alt != -600000 {
		t.Fatalf("centre alt = %v, want -600000", got.Alt)
	}
}

func TestLatLonAltOrbitalSkipsSwizzle(t *testing.T) {
	b := kerbinLike()
	b.frame = IdentityFrame{}

	// Orbital vectors are already z-up: +z is the north pole.
	north := LatLonAltOrbital(b, mgl64.Vec3{0, 0, 600000})
	if math.Abs(north.Lat-90) > 1e-12 || math.Abs(north.Alt-30000) > 1e-6 {
		t.Fatalf("orbital +z = %+v, want lat 90 alt 30000", north)
	}

	east := LatLonAltOrbital(b, mgl64.Vec3{0, 650000, 0})
	if east.Lat != 0 || math.Abs(east.Lon-90) > 1e-12 || east.Alt != 50000 {
		t.Fatalf("orbital +y = %+v, want lat 0 lon 90 alt 50000", east)
	}

	// The same vector through the world path lands on the equator instead.
	world := GetLatLonAlt(b, b.center.Add(mgl64.Vec3{0, 0, 600000}))
	if world.Lat != 0 {
		t.Fatalf("world +z lat = %v, want 0", world.Lat)
	}
}

func TestSurfacePositionSitsOnEllipsoid(t *testing.T) {
	b := kerbinLike()
	for _, lat := range []float64{-90, -60, 0, 33, 90} {
		rel := RelSurfacePosition(b, lat, 77, 0)
		if want := SeaLevelRadiusAtDegrees(b, lat); relErr(rel.Len(), want) > 1e-12 {
			t.Fatalf("surface radius at %v = %v, want %v", lat, rel.Len(), want)
		}
		if alt := Altitude(b, b.center.Add(rel)); math.Abs(alt) > 1e-6 {
			t.Fatalf("surface altitude at %v = %v, want 0", lat, alt)
		}

		up := RelSurfacePosition(b, lat, 77, 250)
		if d := up.Sub(rel).Len(); math.Abs(d-250) > 1e-6 {
			t.Fatalf("altitude offset at %v = %v, want 250", lat, d)
		}
	}
}

func TestSphericalAltitude32(t *testing.T) {
	b := sphere(600000)
	got := SphericalAltitude32(b, mgl32.Vec3{0, 601000, 0})
	if got != 1000 {
		t.Fatalf("SphericalAltitude32 = %v, want 1000", got)
	}
	if under := SphericalAltitude32(b, mgl32.Vec3{599900, 0, 0}); under != -100 {
		t.Fatalf("SphericalAltitude32 below surface = %v, want -100", under)
	}
}
