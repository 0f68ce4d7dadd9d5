package report

import (
	"encoding/json"
	"reflect"
	"testing"
)

func loc(code string) Location {
	return Location{Country: &Country{Code: code}}
}

func svc(group string) AgencyService {
	return AgencyService{Service: &Service{ServiceGroup: &ServiceGroup{Name: group}}}
}

func TestClassifyRegion(t *testing.T) {
	regions := NewRegionCatalog([]string{"AU", "GB", "US"})

	tests := []struct {
		name      string
		locations []Location
		expected  string
	}{
		{"first matching location wins", []Location{loc("FR"), loc("GB"), loc("AU")}, "GB"},
		{"single match", []Location{loc("US")}, "US"},
		{"no match", []Location{loc("FR"), loc("DE")}, "OTHERS"},
		{"empty list", nil, "OTHERS"},
		{"missing country", []Location{{}, loc("AU")}, "AU"},
		{"empty code", []Location{loc("")}, "OTHERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyRegion(regions, tt.locations); got != tt.expected {
				t.Errorf("ClassifyRegion() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCountServices(t *testing.T) {
	groups := NewServiceCatalog([]string{"X", "Z"})

	tests := []struct {
		name     string
		services []AgencyService
		expected []ServiceCount
	}{
		{
			name:     "matched and unmatched",
			services: []AgencyService{svc("X"), svc("Y"), svc("X")},
			expected: []ServiceCount{{"X", 2}, {"Z", 0}, {"others", 1}},
		},
		{
			name:     "missing service group counts as others",
			services: []AgencyService{{}, {Service: &Service{}}},
			expected: []ServiceCount{{"X", 0}, {"Z", 0}, {"others", 2}},
		},
		{
			name:     "empty list",
			services: nil,
			expected: []ServiceCount{{"X", 0}, {"Z", 0}, {"others", 0}},
		},
		{
			name:     "explicit others group",
			services: []AgencyService{svc("others")},
			expected: []ServiceCount{{"X", 0}, {"Z", 0}, {"others", 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountServices(groups, tt.services); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("CountServices() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCountServices_OrderIndependent(t *testing.T) {
	groups := NewServiceCatalog([]string{"X", "Z"})
	a := CountServices(groups, []AgencyService{svc("X"), svc("Y"), svc("Z")})
	b := CountServices(groups, []AgencyService{svc("Z"), svc("X"), svc("Y")})

	if !reflect.DeepEqual(a, b) {
		t.Errorf("counts depend on entry order: %v vs %v", a, b)
	}
}

func TestClassify_EmptyRecord(t *testing.T) {
	regions := NewRegionCatalog([]string{"AU"})
	groups := NewServiceCatalog([]string{"X"})

	region, services := Classify(regions, groups, Record{})
	if region != "OTHERS" {
		t.Errorf("region = %q, want OTHERS", region)
	}
	for _, s := range services {
		if s.Count != 0 {
			t.Errorf("service %q count = %d, want 0", s.Name, s.Count)
		}
	}
}

func TestRecord_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantCountries []string
		wantGroups    []string
	}{
		{
			name:          "well formed",
			input:         `{"locations":[{"country":{"code":"AU"}}],"agencyService":[{"service":{"serviceGroup":{"name":"X"}}}]}`,
			wantCountries: []string{"AU"},
			wantGroups:    []string{"X"},
		},
		{
			name:          "missing fields",
			input:         `{"name":"Acme"}`,
			wantCountries: nil,
			wantGroups:    nil,
		},
		{
			name:          "null fields",
			input:         `{"locations":null,"agencyService":null}`,
			wantCountries: nil,
			wantGroups:    nil,
		},
		{
			name:          "locations wrong shape",
			input:         `{"locations":"AU","agencyService":[{"service":{"serviceGroup":{"name":"X"}}}]}`,
			wantCountries: nil,
			wantGroups:    []string{"X"},
		},
		{
			name:          "location without country",
			input:         `{"locations":[{},{"country":null}]}`,
			wantCountries: []string{"", ""},
			wantGroups:    nil,
		},
		{
			name:          "not an object",
			input:         `42`,
			wantCountries: nil,
			wantGroups:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec Record
			if err := json.Unmarshal([]byte(tt.input), &rec); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}

			var countries []string
			for _, l := range rec.Locations {
				countries = append(countries, l.CountryCode())
			}
			var groups []string
			for _, s := range rec.AgencyServices {
				groups = append(groups, s.GroupName())
			}

			if !reflect.DeepEqual(countries, tt.wantCountries) {
				t.Errorf("countries = %v, want %v", countries, tt.wantCountries)
			}
			if !reflect.DeepEqual(groups, tt.wantGroups) {
				t.Errorf("groups = %v, want %v", groups, tt.wantGroups)
			}
		})
	}
}
