package domain

// Route is an admin-managed intercity corridor. Pricing multiplies a
// vehicle's base price by the route's PriceMultiplier.
type Route struct {
	ID              string
	Name            string
	OriginLat       float64
	OriginLng       float64
	DestLat         float64
	DestLng         float64
	DistanceKm      float64
	PriceMultiplier float64
	Bidirectional   bool
	Active          bool
}
