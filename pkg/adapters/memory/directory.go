package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/aretw0/railchat/pkg/domain"
)

// Directory implements ports.StationDirectory over a fixed station list.
type Directory struct {
	byName   map[string]domain.Station
	byCode   map[string]domain.Station
	stations []domain.Station
}

// NewDirectory indexes the given stations. Later duplicates of a name win.
func NewDirectory(stations ...domain.Station) *Directory {
	d := &Directory{
		byName: make(map[string]domain.Station, len(stations)),
		byCode: make(map[string]domain.Station, len(stations)),
	}
	for _, st := range stations {
		d.byName[strings.ToLower(st.Name)] = st
	}
	for _, st := range d.byName {
		d.stations = append(d.stations, st)
		d.byCode[strings.ToUpper(st.Code)] = st
	}
	sort.Slice(d.stations, func(i, j int) bool { return d.stations[i].Name < d.stations[j].Name })
	return d
}

// Lookup finds a station by name, ignoring case.
func (d *Directory) Lookup(_ context.Context, name string) (domain.Station, error) {
	st, ok := d.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return domain.Station{}, domain.ErrStationNotFound
	}
	return st, nil
}

// LookupCode finds a station by code, ignoring case.
func (d *Directory) LookupCode(_ context.Context, code string) (domain.Station, error) {
	st, ok := d.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return domain.Station{}, domain.ErrStationNotFound
	}
	return st, nil
}

// Search returns stations whose name contains query, in name order.
func (d *Directory) Search(_ context.Context, query string, limit int) ([]domain.Station, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []domain.Station
	for _, st := range d.stations {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(st.Name), q) {
			out = append(out, st)
		}
	}
	return out, nil
}

// Stations returns every station in name order.
func (d *Directory) Stations(_ context.Context) ([]domain.Station, error) {
	return append([]domain.Station(nil), d.stations...), nil
}

// SampleStations is a small directory covering the Greater Anglia main line and a few
// London terminals.
var SampleStations = []domain.Station{
	{Name: "Norwich", Code: "NRW", County: "Norfolk"},
	{Name: "Diss", Code: "DIS", County: "Norfolk"},
	{Name: "Stowmarket", Code: "SMK", County: "Suffolk"},
	{Name: "Ipswich", Code: "IPS", County: "Suffolk"},
	{Name: "Manningtree", Code: "MNG", County: "Essex"},
	{Name: "Colchester", Code: "COL", County: "Essex"},
	{Name: "Chelmsford", Code: "CHM", County: "Essex"},
	{Name: "Shenfield", Code: "SNF", County: "Essex"},
	{Name: "Stratford", Code: "SRA", County: "Greater London"},
	{Name: "Forest Gate", Code: "FOG", County: "Greater London"},
	{Name: "London Liverpool Street", Code: "LST", County: "Greater London"},
	{Name: "London Kings Cross", Code: "KGX", County: "Greater London"},
	{Name: "Abbey Wood", Code: "ABW", County: "Greater London"},
	{Name: "Liverpool Lime Street", Code: "LIV", County: "Merseyside"},
	{Name: "Cambridge", Code: "CBG", County: "Cambridgeshire"},
	{Name: "Ely", Code: "ELY", County: "Cambridgeshire"},
	{Name: "Great Yarmouth", Code: "GYM", County: "Norfolk"},
	{Name: "Lowestoft", Code: "LWT", County: "Suffolk"},
}
