package stores

import (
	"math"
	"sort"
)

// Store describes a physical store in the catalog.
type Store struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	OpeningHours string  `json:"opening_hours"`
	IsOpenNow    bool    `json:"is_open_now"`
	Rating       float64 `json:"rating"`
	ReviewCount  int     `json:"review_count"`
	DistanceM    float64 `json:"distance_m"`
}

// Locator resolves nearby stores for a location. The catalog is a fixed
// demo set; swapping in a places API changes only this type.
type Locator struct {
	catalog []Store
}

// NewLocator creates a locator over the demo catalog.
func NewLocator() *Locator {
	return &Locator{catalog: demoCatalog()}
}

func demoCatalog() []Store {
	return []Store{
		{
			ID:           "store_101",
			Name:         "Starbucks MG Road",
			Lat:          12.9717,
			Lng:          77.5948,
			OpeningHours: "08:00-22:00",
			IsOpenNow:    true,
			Rating:       4.4,
			ReviewCount:  892,
		},
		{
			ID:           "store_102",
			Name:         "Third Wave Coffee Church Street",
			Lat:          12.9730,
			Lng:          77.6050,
			OpeningHours: "09:00-23:00",
			IsOpenNow:    false,
			Rating:       4.6,
			ReviewCount:  650,
		},
	}
}

// Nearby returns catalog stores sorted by distance from the given point.
// Without a location every distance is zero and catalog order is kept.
func (l *Locator) Nearby(lat, lng *float64) []Store {
	result := make([]Store, len(l.catalog))
	copy(result, l.catalog)

	for i := range result {
		if lat != nil && lng != nil {
			result[i].DistanceM = haversineM(*lat, *lng, result[i].Lat, result[i].Lng)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DistanceM < result[j].DistanceM
	})

	return result
}

// haversineM returns the distance in meters between two lat/lng pairs.
func haversineM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusM = 6371000

	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}
