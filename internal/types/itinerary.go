package types

// LocationType classifies an itinerary stop.
type LocationType string

const (
	LocationAttraction LocationType = "attraction"
	LocationRestaurant LocationType = "restaurant"
	LocationHotel      LocationType = "hotel"
	LocationTransport  LocationType = "transport"
)

// Transportation describes how to move from a stop to the next one.
type Transportation struct {
	Method   string `json:"method,omitempty"`
	Duration string `json:"duration,omitempty"`
	Cost     string `json:"cost,omitempty"`
}

// Location is a single itinerary stop parsed from one table row or one
// transport/accommodation list item. Lat/Lng are only set after a
// successful geocode; callers must treat nil as "drop the point", never
// as (0,0).
type Location struct {
	Order          int             `json:"order"`
	Name           string          `json:"name"`
	Address        string          `json:"address"`
	Type           LocationType    `json:"type"`
	Time           string          `json:"time,omitempty"`
	Duration       string          `json:"duration,omitempty"`
	Cost           string          `json:"cost,omitempty"`
	Description    string          `json:"description,omitempty"`
	Highlights     []string        `json:"highlights,omitempty"`
	Food           []string        `json:"food,omitempty"`
	Transportation *Transportation `json:"transportation,omitempty"`
	Lat            *float64        `json:"lat,omitempty"`
	Lng            *float64        `json:"lng,omitempty"`
}

// Resolved reports whether the location carries usable coordinates.
func (l *Location) Resolved() bool {
	return l.Lat != nil && l.Lng != nil
}

// Reserved day labels. The transport and hotel labels are pseudo-days
// holding entries that do not belong to a single calendar day; the
// overview label is used when the document contains locations but no day
// markers at all. The day-marker pattern can never produce one of these,
// so they cannot collide with numbered days.
const (
	DayLabelTransport = "往返及城际交通"
	DayLabelHotel     = "住宿推荐"
	DayLabelOverview  = "行程"
)

// DayItinerary is one day of the plan, or one of the reserved
// pseudo-days. Days are only emitted once they hold at least one
// location; duplicate labels across the document merge by appending in
// document order.
type DayItinerary struct {
	Day          string     `json:"day"`
	Locations    []Location `json:"locations"`
	Weather      string     `json:"weather,omitempty"`
	DailyCost    int        `json:"daily_cost,omitempty"`
	Description  string     `json:"description,omitempty"`
	Tips         []string   `json:"tips,omitempty"`
	StaticMapURL string     `json:"static_map_url,omitempty"`
}

// GeoPoint is a resolved coordinate pair from the geocoding provider.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ExtractionReport separates data-quality gaps from infrastructure
// outages so a caller can tell "the row was noise" from "the provider
// was down" — the output day list alone cannot distinguish them.
type ExtractionReport struct {
	RowsParsed     int `json:"rows_parsed"`
	RowsSkipped    int `json:"rows_skipped"`
	PositionalRows int `json:"positional_rows"`
	Geocoded       int `json:"geocoded"`
	GeocodeMisses  int `json:"geocode_misses"`
	UpstreamErrors int `json:"upstream_errors"`
}

// ExtractionResponse is the wire shape returned by the extraction
// endpoint.
type ExtractionResponse struct {
	City   string           `json:"city,omitempty"`
	Days   []DayItinerary   `json:"days"`
	Report ExtractionReport `json:"report"`
}

// ExtractionRequest carries the assistant message to be parsed.
type ExtractionRequest struct {
	Content string `json:"content"`
}

// GenerateRequest asks the optional draft generator for an itinerary.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}
