package report

import "strings"

const (
	// CatchAllRegion collects records with no location in the region catalog.
	CatchAllRegion = "OTHERS"

	// CatchAllServiceGroup collects service entries with no group in the service catalog.
	CatchAllServiceGroup = "others"
)

// DefaultRegions returns the region codes used when none are configured.
func DefaultRegions() []string {
	return []string{"AU", "GB", "US", CatchAllRegion}
}

// DefaultServiceGroups returns the service groups used when none are configured.
func DefaultServiceGroups() []string {
	return []string{"Advertising, Brand & Creative", "Media, PR & Events", CatchAllServiceGroup}
}

// Catalog is an ordered set of bucket names that always contains its
// catch-all bucket. Build one with NewCatalog.
type Catalog struct {
	names    []string
	index    map[string]int
	catchAll string
}

// NewCatalog builds a catalog from names in order, dropping blanks and
// duplicates. catchAll is appended when it is not already present.
func NewCatalog(names []string, catchAll string) Catalog {
	c := Catalog{
		names:    make([]string, 0, len(names)+1),
		index:    make(map[string]int, len(names)+1),
		catchAll: catchAll,
	}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		c.add(name)
	}
	c.add(catchAll)
	return c
}

// NewRegionCatalog builds a region catalog with the OTHERS catch-all.
func NewRegionCatalog(codes []string) Catalog {
	return NewCatalog(codes, CatchAllRegion)
}

// NewServiceCatalog builds a service-group catalog with the others catch-all.
func NewServiceCatalog(groups []string) Catalog {
	return NewCatalog(groups, CatchAllServiceGroup)
}

func (c *Catalog) add(name string) {
	if _, ok := c.index[name]; ok {
		return
	}
	c.index[name] = len(c.names)
	c.names = append(c.names, name)
}

// Names returns the catalog entries in insertion order.
func (c Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of entries, catch-all included.
func (c Catalog) Len() int {
	return len(c.names)
}

// CatchAll returns the catch-all bucket name.
func (c Catalog) CatchAll() string {
	return c.catchAll
}

// Contains reports whether name is an exact member of the catalog.
func (c Catalog) Contains(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Resolve returns name if it is a member, otherwise the catch-all.
func (c Catalog) Resolve(name string) string {
	if c.Contains(name) {
		return name
	}
	return c.catchAll
}

// position returns the index of the bucket name resolves to.
func (c Catalog) position(name string) int {
	if i, ok := c.index[name]; ok {
		return i
	}
	return c.index[c.catchAll]
}
