package models

// Region is a sales region. MapCode is the external map-widget code in
// "XX-YY" form. Both lookup directions are built from the same fixed
// table; a broken direction silently drops the region from map-driven
// views.
type Region struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	MapCode string `json:"mapCode"`
}

// regionTable is the authoritative region list. Order follows the upstream
// directory.
var regionTable = []Region{
	{ID: "jkt", Name: "Jakarta", MapCode: "ID-JK"},
	{ID: "jbr", Name: "Jawa Barat", MapCode: "ID-JB"},
	{ID: "jtg", Name: "Jawa Tengah", MapCode: "ID-JT"},
	{ID: "jtm", Name: "Jawa Timur", MapCode: "ID-JI"},
	{ID: "btn", Name: "Banten", MapCode: "ID-BT"},
	{ID: "yog", Name: "Yogyakarta", MapCode: "ID-YO"},
	{ID: "bali", Name: "Bali", MapCode: "ID-BA"},
	{ID: "sumut", Name: "Sumatera Utara", MapCode: "ID-SU"},
	{ID: "sumsel", Name: "Sumatera Selatan", MapCode: "ID-SS"},
	{ID: "riau", Name: "Riau", MapCode: "ID-RI"},
	{ID: "lpg", Name: "Lampung", MapCode: "ID-LA"},
	{ID: "kalbar", Name: "Kalimantan Barat", MapCode: "ID-KB"},
	{ID: "kaltim", Name: "Kalimantan Timur", MapCode: "ID-KI"},
	{ID: "sulsel", Name: "Sulawesi Selatan", MapCode: "ID-SN"},
	{ID: "sulut", Name: "Sulawesi Utara", MapCode: "ID-SA"},
}

var (
	regionByID      = map[string]Region{}
	regionByMapCode = map[string]Region{}
)

func init() {
	for _, r := range regionTable {
		regionByID[r.ID] = r
		regionByMapCode[r.MapCode] = r
	}
}

// Regions returns all regions in directory order.
func Regions() []Region {
	out := make([]Region, len(regionTable))
	copy(out, regionTable)
	return out
}

// RegionByID looks up a region by its internal id.
func RegionByID(id string) (Region, bool) {
	r, ok := regionByID[id]
	return r, ok
}

// RegionByMapCode looks up a region by its external map-widget code.
func RegionByMapCode(code string) (Region, bool) {
	r, ok := regionByMapCode[code]
	return r, ok
}

// IsValidRegion reports whether id names a known region.
func IsValidRegion(id string) bool {
	_, ok := regionByID[id]
	return ok
}
