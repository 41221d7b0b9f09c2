// Package catalog holds the in-memory KPI and municipality metadata loaded
// once at startup from the Kolada API.
//
// A Catalog is immutable after New returns and is therefore safe for
// unsynchronized concurrent reads. All other components reference KPIs and
// municipalities by id only; the Catalog is the single owner of the
// metadata records.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound indicates an id is absent from the catalog.
var ErrNotFound = errors.New("not found")

// Municipality type codes used by the Kolada API.
const (
	TypeMunicipality = "K" // kommun
	TypeRegion       = "R" // region
	TypeCounty       = "L" // landsting (historical county councils)
)

// KPI is a single indicator from the Kolada catalog (~6500 entries).
// Operating areas may be a comma-separated list of categories.
type KPI struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	OperatingArea string `json:"operating_area,omitempty"`
	Unit          string `json:"unit,omitempty"`
}

// Municipality is a Swedish municipality or region.
type Municipality struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// AreaSummary is one operating area with its indicator count.
type AreaSummary struct {
	OperatingArea string `json:"operating_area"`
	KPICount      int    `json:"kpi_count"`
}

// Catalog is the read-only metadata table.
type Catalog struct {
	kpis           []KPI
	kpiByID        map[string]KPI
	municipalities []Municipality
	munByID        map[string]Municipality
	areas          []AreaSummary
	kpisByArea     map[string][]KPI // key is lowercased area name
}

// New builds a catalog from the loaded metadata. Duplicate ids are rejected:
// the catalog is the authority on id uniqueness and the embedding index
// depends on it.
func New(kpis []KPI, municipalities []Municipality) (*Catalog, error) {
	c := &Catalog{
		kpis:           kpis,
		kpiByID:        make(map[string]KPI, len(kpis)),
		municipalities: municipalities,
		munByID:        make(map[string]Municipality, len(municipalities)),
		kpisByArea:     make(map[string][]KPI),
	}

	for _, k := range kpis {
		if k.ID == "" {
			return nil, fmt.Errorf("kpi with empty id (title %q)", k.Title)
		}
		if _, dup := c.kpiByID[k.ID]; dup {
			return nil, fmt.Errorf("duplicate kpi id %q", k.ID)
		}
		c.kpiByID[k.ID] = k

		for _, area := range splitAreas(k.OperatingArea) {
			c.kpisByArea[strings.ToLower(area)] = append(c.kpisByArea[strings.ToLower(area)], k)
		}
	}

	for _, m := range municipalities {
		if m.ID == "" {
			return nil, fmt.Errorf("municipality with empty id (title %q)", m.Title)
		}
		if _, dup := c.munByID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate municipality id %q", m.ID)
		}
		c.munByID[m.ID] = m
	}

	c.areas = summarizeAreas(kpis)

	return c, nil
}

// splitAreas splits a comma-separated operating area string into trimmed,
// non-empty names. An empty input yields the single area "Okänd", matching
// how Kolada labels uncategorized indicators.
func splitAreas(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{"Okänd"}
	}
	parts := strings.Split(s, ",")
	areas := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			areas = append(areas, p)
		}
	}
	return areas
}

// summarizeAreas counts indicators per operating area, sorted by descending
// count then ascending name.
func summarizeAreas(kpis []KPI) []AreaSummary {
	counts := make(map[string]int)
	for _, k := range kpis {
		for _, area := range splitAreas(k.OperatingArea) {
			counts[area]++
		}
	}

	summaries := make([]AreaSummary, 0, len(counts))
	for area, n := range counts {
		summaries = append(summaries, AreaSummary{OperatingArea: area, KPICount: n})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].KPICount != summaries[j].KPICount {
			return summaries[i].KPICount > summaries[j].KPICount
		}
		return summaries[i].OperatingArea < summaries[j].OperatingArea
	})
	return summaries
}

// KPI looks up an indicator by exact id.
func (c *Catalog) KPI(id string) (KPI, error) {
	k, ok := c.kpiByID[id]
	if !ok {
		return KPI{}, fmt.Errorf("kpi %q: %w", id, ErrNotFound)
	}
	return k, nil
}

// KPIs returns all indicators in catalog order.
func (c *Catalog) KPIs() []KPI {
	return c.kpis
}

// KPICount reports the number of indicators.
func (c *Catalog) KPICount() int {
	return len(c.kpis)
}

// OperatingAreas returns the area summaries, sorted by descending count then
// ascending name.
func (c *Catalog) OperatingAreas() []AreaSummary {
	return c.areas
}

// KPIsByOperatingArea returns the indicators tagged with the given area,
// matched case-insensitively. An unknown area yields an empty slice, not an
// error: absence of data is not a failure.
func (c *Catalog) KPIsByOperatingArea(area string) []KPI {
	kpis := c.kpisByArea[strings.ToLower(strings.TrimSpace(area))]
	if kpis == nil {
		return []KPI{}
	}
	return kpis
}

// Municipality looks up a municipality by exact id.
func (c *Catalog) Municipality(id string) (Municipality, error) {
	m, ok := c.munByID[id]
	if !ok {
		return Municipality{}, fmt.Errorf("municipality %q: %w", id, ErrNotFound)
	}
	return m, nil
}

// HasMunicipality reports whether the id exists.
func (c *Catalog) HasMunicipality(id string) bool {
	_, ok := c.munByID[id]
	return ok
}

// MunicipalityName returns the display name for an id, falling back to the
// id itself when unknown.
func (c *Catalog) MunicipalityName(id string) string {
	if m, ok := c.munByID[id]; ok {
		return m.Title
	}
	return id
}

// Municipalities returns all municipalities, optionally filtered by type
// ("K", "R", "L"); an empty type returns everything.
func (c *Catalog) Municipalities(municipalityType string) []Municipality {
	if municipalityType == "" {
		return c.municipalities
	}
	out := make([]Municipality, 0, len(c.municipalities))
	for _, m := range c.municipalities {
		if m.Type == municipalityType {
			out = append(out, m)
		}
	}
	return out
}

// MunicipalityCount reports the number of municipalities.
func (c *Catalog) MunicipalityCount() int {
	return len(c.municipalities)
}
