package kernel

import (
	"errors"
	"fmt"
	"math"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

const (
	// LocationMinLatitude is the minimum valid latitude in degrees.
	LocationMinLatitude = -90.0
	// LocationMaxLatitude is the maximum valid latitude in degrees.
	LocationMaxLatitude = 90.0
	// LocationMinLongitude is the minimum valid longitude in degrees.
	LocationMinLongitude = -180.0
	// LocationMaxLongitude is the maximum valid longitude in degrees.
	LocationMaxLongitude = 180.0

	// earthRadiusKm is the mean Earth radius used for haversine distances.
	earthRadiusKm = 6371.0

	// locationEqualityToleranceDegrees bounds coordinate comparison so that
	// positions produced by independent float arithmetic still compare equal.
	locationEqualityToleranceDegrees = 1e-9
)

// ErrLocationIsNotConstructed is returned when attempting to use an improperly
// initialized Location. Locations must be created via NewLocation.
var ErrLocationIsNotConstructed = errs.NewValueIsRequiredError(
	"location must be created via NewLocation constructor")

// Location represents a geographic point with validated latitude and longitude,
// expressed in decimal degrees. Location is an immutable value object; the zero
// value is invalid and fails Validate.
//
// Example:
//
//	loc, err := kernel.NewLocation(52.5200, 13.4050)
//	if err != nil {
//	    // Handle validation error
//	}
//	fmt.Println(loc) // Output: Location(52.520000,13.405000)
type Location struct { //nolint:recvcheck //using for validation
	latitude  float64
	longitude float64
	guard     guard.ConstructorGuard
}

// NewLocation creates a Location from latitude and longitude in decimal degrees.
// Latitude must lie in [-90, 90] and longitude in [-180, 180]; values outside
// those bounds produce a validation error.
func NewLocation(latitude float64, longitude float64) (Location, error) {
	loc := Location{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(loc.setLatitude(latitude), loc.setLongitude(longitude)); err != nil {
		return Location{}, err
	}

	return loc, nil
}

// Validate checks if the Location was properly constructed via NewLocation.
// The zero value fails this validation.
func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

// Latitude returns the latitude in decimal degrees.
func (l Location) Latitude() float64 {
	return l.latitude
}

// Longitude returns the longitude in decimal degrees.
func (l Location) Longitude() float64 {
	return l.longitude
}

// IsEqual reports whether two locations describe the same point, within a
// small tolerance that absorbs floating-point noise.
func (l Location) IsEqual(other Location) bool {
	return math.Abs(l.latitude-other.latitude) <= locationEqualityToleranceDegrees &&
		math.Abs(l.longitude-other.longitude) <= locationEqualityToleranceDegrees
}

// DistanceKmTo returns the great-circle distance to another location in
// kilometers using the haversine formula.
//
// Both locations must be properly constructed; an error is returned otherwise.
func (l Location) DistanceKmTo(other Location) (float64, error) {
	if err := l.Validate(); err != nil {
		return 0, err
	}
	if err := other.Validate(); err != nil {
		return 0, err
	}

	lat1 := degreesToRadians(l.latitude)
	lat2 := degreesToRadians(other.latitude)
	deltaLat := degreesToRadians(other.latitude - l.latitude)
	deltaLng := degreesToRadians(other.longitude - l.longitude)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c, nil
}

// String returns a human-readable representation of the location.
func (l Location) String() string {
	return fmt.Sprintf("Location(%f,%f)", l.latitude, l.longitude)
}

func (l *Location) setLatitude(latitude float64) error {
	if latitude < LocationMinLatitude || latitude > LocationMaxLatitude {
		return errs.NewValueIsOutOfRangeError("latitude", latitude, LocationMinLatitude, LocationMaxLatitude)
	}
	l.latitude = latitude
	return nil
}

func (l *Location) setLongitude(longitude float64) error {
	if longitude < LocationMinLongitude || longitude > LocationMaxLongitude {
		return errs.NewValueIsOutOfRangeError("longitude", longitude, LocationMinLongitude, LocationMaxLongitude)
	}
	l.longitude = longitude
	return nil
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
