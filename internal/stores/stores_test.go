package stores

import (
	"strings"
	"testing"
)

func TestNearby(t *testing.T) {
	locator := NewLocator()

	t.Run("SortedByDistance", func(t *testing.T) {
		// Point near Church Street, so store_102 should come first.
		lat, lng := 12.9731, 77.6049
		result := locator.Nearby(&lat, &lng)

		if len(result) != 2 {
			t.Fatalf("Got %d stores, want 2", len(result))
		}
		if result[0].ID != "store_102" {
			t.Errorf("Nearest store = %s, want store_102", result[0].ID)
		}
		if result[0].DistanceM >= result[1].DistanceM {
			t.Errorf("Distances not ascending: %f >= %f", result[0].DistanceM, result[1].DistanceM)
		}
	})

	t.Run("NoLocationKeepsCatalogOrder", func(t *testing.T) {
		result := locator.Nearby(nil, nil)

		if result[0].ID != "store_101" || result[1].ID != "store_102" {
			t.Errorf("Order = %s, %s", result[0].ID, result[1].ID)
		}
		for _, s := range result {
			if s.DistanceM != 0 {
				t.Errorf("Store %s has distance %f without a location", s.ID, s.DistanceM)
			}
		}
	})

	t.Run("CatalogNotMutated", func(t *testing.T) {
		lat, lng := 12.9717, 77.5948
		locator.Nearby(&lat, &lng)

		if locator.catalog[0].DistanceM != 0 {
			t.Error("Nearby mutated the catalog")
		}
	})
}

func TestOffersForStores(t *testing.T) {
	catalog := NewLocator().Nearby(nil, nil)

	cases := []struct {
		tier     string
		discount string
	}{
		{"Gold", "15%"},
		{"Silver", "10%"},
		{"Bronze", "5%"},
		{"", "5%"},
	}

	for _, tc := range cases {
		t.Run(tc.tier, func(t *testing.T) {
			offers := OffersForStores(tc.tier, catalog)

			if len(offers) != len(catalog) {
				t.Fatalf("Got %d offers for %d stores", len(offers), len(catalog))
			}
			for i, o := range offers {
				if o.StoreID != catalog[i].ID {
					t.Errorf("Offer %d store = %s, want %s", i, o.StoreID, catalog[i].ID)
				}
				if !strings.Contains(o.Description, tc.discount) {
					t.Errorf("Offer description %q missing %s", o.Description, tc.discount)
				}
			}
		})
	}
}
