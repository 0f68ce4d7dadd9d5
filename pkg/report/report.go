package report

import (
	"encoding/json"
	"sync"
)

// ServiceCount is the number of service entries counted for one group.
type ServiceCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RegionSummary holds the service counts of one region, in catalog order.
type RegionSummary struct {
	RegionCode string         `json:"regionCode"`
	Services   []ServiceCount `json:"services"`
}

// Report accumulates service counts per region. Every region and service
// group of its catalogs is present from construction, counts only grow and
// buckets are never removed. A Report is safe for concurrent use.
type Report struct {
	mu      sync.Mutex
	regions Catalog
	groups  Catalog
	counts  [][]int // [region][group]
	records int
}

// NewReport returns a report with every region x group bucket at zero.
func NewReport(regions, groups Catalog) *Report {
	counts := make([][]int, regions.Len())
	for i := range counts {
		counts[i] = make([]int, groups.Len())
	}
	return &Report{
		regions: regions,
		groups:  groups,
		counts:  counts,
	}
}

// Regions returns the report's region catalog.
func (r *Report) Regions() Catalog {
	return r.regions
}

// ServiceGroups returns the report's service-group catalog.
func (r *Report) ServiceGroups() Catalog {
	return r.groups
}

// Add merges one record's service counts into the region bucket. Regions and
// service names are matched by exact name; names outside the catalogs land
// in the catch-all buckets.
func (r *Report) Add(region string, services []ServiceCount) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.addLocked(region, services)
	r.records++
}

func (r *Report) addLocked(region string, services []ServiceCount) {
	row := r.counts[r.regions.position(region)]
	for _, svc := range services {
		if svc.Count <= 0 {
			continue
		}
		row[r.groups.position(svc.Name)] += svc.Count
	}
}

// AddRecord classifies rec and adds its counts.
func (r *Report) AddRecord(rec Record) {
	region, services := Classify(r.regions, r.groups, rec)
	r.Add(region, services)
}

// AddRecords classifies and adds every record of a page.
func (r *Report) AddRecords(records []Record) {
	for _, rec := range records {
		r.AddRecord(rec)
	}
}

// Merge adds every count of other into r, matching buckets by name. Merging
// is commutative and associative, so partial reports may be merged in any
// order.
func (r *Report) Merge(other *Report) {
	if other == nil || other == r {
		return
	}
	summaries, records := other.snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range summaries {
		r.addLocked(s.RegionCode, s.Services)
	}
	r.records += records
}

// Records returns the number of records added, directly or through Merge.
func (r *Report) Records() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records
}

// Count returns the count of one region x group bucket.
func (r *Report) Count(region, group string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.regions.Contains(region) || !r.groups.Contains(group) {
		return 0
	}
	return r.counts[r.regions.position(region)][r.groups.position(group)]
}

// RegionTotal returns the sum of all service counts of a region.
func (r *Report) RegionTotal(region string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.regions.Contains(region) {
		return 0
	}
	total := 0
	for _, n := range r.counts[r.regions.position(region)] {
		total += n
	}
	return total
}

// Summaries returns the report in region catalog order, each region's
// services in service catalog order.
func (r *Report) Summaries() []RegionSummary {
	summaries, _ := r.snapshot()
	return summaries
}

func (r *Report) snapshot() ([]RegionSummary, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RegionSummary, len(r.regions.names))
	for i, region := range r.regions.names {
		services := make([]ServiceCount, len(r.groups.names))
		for j, group := range r.groups.names {
			services[j] = ServiceCount{Name: group, Count: r.counts[i][j]}
		}
		out[i] = RegionSummary{RegionCode: region, Services: services}
	}
	return out, r.records
}

// MarshalJSON encodes the report as its ordered summaries.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Summaries())
}
