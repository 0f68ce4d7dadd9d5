package report

// ClassifyRegion returns the country code of the first location that is a
// member of regions, or the catalog's catch-all when none is.
func ClassifyRegion(regions Catalog, locations []Location) string {
	for _, loc := range locations {
		code := loc.CountryCode()
		if code != "" && regions.Contains(code) {
			return code
		}
	}
	return regions.CatchAll()
}

// CountServices tallies service entries by group in catalog order. Entries
// whose group name is not an exact catalog member count towards the catch-all.
func CountServices(groups Catalog, services []AgencyService) []ServiceCount {
	counts := make([]int, groups.Len())
	for _, svc := range services {
		counts[groups.position(svc.GroupName())]++
	}

	out := make([]ServiceCount, groups.Len())
	for i, name := range groups.names {
		out[i] = ServiceCount{Name: name, Count: counts[i]}
	}
	return out
}

// Classify returns the record's region bucket and its per-group service counts.
func Classify(regions, groups Catalog, rec Record) (string, []ServiceCount) {
	return ClassifyRegion(regions, rec.Locations), CountServices(groups, rec.AgencyServices)
}
