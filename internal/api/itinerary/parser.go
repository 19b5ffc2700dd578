package itinerary

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tripweave/go-itinerary-extraction/internal/types"
)

var (
	dayHeaderRe = regexp.MustCompile(`(?i)#{2,4}\s*(第[\d一二三四五六七八九十]+天|Day\s*\d+|D\d+)`)
	transportRe = regexp.MustCompile(`#{2,4}\s*.*(?:交通|往返)`)
	hotelRe     = regexp.MustCompile(`#{2,4}\s*.*(?:住宿|酒店)`)

	listCostRe  = regexp.MustCompile(`(?i)(?:¥|￥|约|Cost)\s*(\d+)`)
	markStripRe = regexp.MustCompile(`[*#\-]`)
)

var (
	weatherMetaRe = regexp.MustCompile(`(?i)>\s*\*\*(?:天气|Weather)\*\*[：:]\s*(.+)`)
	costMetaRe    = regexp.MustCompile(`(?i)>\s*\*\*(?:今日预计花销|Daily Cost|预算|Cost)\*\*[：:]\s*(.+)`)
	firstIntRe    = regexp.MustCompile(`\d+`)
	listSplitRe   = regexp.MustCompile(`[,、，]`)
	colonSplitRe  = regexp.MustCompile(`[：:]`)
)

// priceLabels are colon-prefixed labels on transport/accommodation list
// lines that describe a price, not a bookable entity.
var priceLabels = []string{"票价", "参考价", "费用", "价格", "预算", "花费"}

// ParseResult is the outcome of one full parse pass. Row counters keep
// data-quality gaps visible even though rejected rows never surface as
// errors.
type ParseResult struct {
	Days           []types.DayItinerary
	RowsParsed     int
	RowsSkipped    int
	PositionalRows int
}

// parseState is the per-pass accumulator threaded through the line loop.
// One day's worth of buffers lives here until a day marker, section
// heading or end of input flushes it.
type parseState struct {
	days        []types.DayItinerary
	dayLabel    string
	locations   []types.Location
	weather     string
	dailyCost   int
	description []string
	tips        []string
	fields      FieldMap
	insideTable bool
	seenTable   bool
}

// Parse converts raw assistant Markdown into day-partitioned itineraries.
// Deterministic, synchronous, no I/O; malformed lines degrade to fewer
// locations, never to an error. Empty or non-Markdown input yields an
// empty day list.
func Parse(rawText string) ParseResult {
	res := ParseResult{}
	st := parseState{dayLabel: types.DayLabelOverview}

	for _, raw := range strings.Split(rawText, "\n") {
		line := strings.TrimSpace(raw)

		// Day marker: flush the accumulator and start over under the new
		// label.
		if m := dayHeaderRe.FindStringSubmatch(line); m != nil {
			st.insideTable = false
			st.flush()
			st.dayLabel = m[1]
			continue
		}

		// Intercity transport section. 市内交通 headings stay narrative.
		if transportRe.MatchString(line) && !strings.Contains(line, "市内") {
			st.insideTable = false
			st.flush()
			st.dayLabel = types.DayLabelTransport
			continue
		}

		if hotelRe.MatchString(line) {
			st.insideTable = false
			st.flush()
			st.dayLabel = types.DayLabelHotel
			continue
		}

		// Inside a pseudo-day, bullet lines carrying a currency amount
		// become locations directly; there is no table to parse.
		if (st.dayLabel == types.DayLabelTransport || st.dayLabel == types.DayLabelHotel) &&
			(strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*")) {
			if loc, ok := parsePseudoDayItem(line, st.dayLabel); ok {
				loc.Order = len(st.locations) + 1
				st.locations = append(st.locations, loc)
				res.RowsParsed++
			}
			continue
		}

		if m := weatherMetaRe.FindStringSubmatch(line); m != nil {
			if st.weather == "" {
				st.weather = strings.TrimSpace(m[1])
			}
			continue
		}
		if m := costMetaRe.FindStringSubmatch(line); m != nil {
			if st.dailyCost == 0 {
				if digits := firstIntRe.FindString(m[1]); digits != "" {
					if n, err := strconv.Atoi(digits); err == nil {
						st.dailyCost = n
					}
				}
			}
			continue
		}

		// Table header: the wording varies between tables, so the field
		// map is rebuilt every time.
		if strings.HasPrefix(line, "|") && strings.Contains(line, "序号") &&
			(strings.Contains(line, "名称") || strings.Contains(line, "地点")) {
			st.insideTable = true
			st.seenTable = true
			st.fields = ClassifyHeaders(splitRow(line))
			continue
		}

		if st.insideTable && strings.HasPrefix(line, "|") && strings.Contains(line, "---") {
			continue
		}

		if st.insideTable && strings.HasPrefix(line, "|") {
			cells := strings.Split(line, "|")
			if len(cells) < 3 {
				continue
			}
			loc, positional, ok := parseTableRow(st.fields, splitRow(line), len(st.locations))
			if !ok {
				res.RowsSkipped++
				continue
			}
			if positional {
				res.PositionalRows++
			}
			st.locations = append(st.locations, loc)
			res.RowsParsed++
			continue
		}

		if st.insideTable && line == "" {
			// Table ended, but the day has not: trailing narrative lines
			// are tips, not a new day.
			st.insideTable = false
			continue
		}

		if !st.insideTable && line != "" && !strings.HasPrefix(line, ">") {
			if st.seenTable {
				st.tips = append(st.tips, line)
			} else {
				st.description = append(st.description, line)
			}
		}
	}

	st.flush()
	res.Days = st.days
	return res
}

// flush folds the accumulator into the day list. Days with no locations
// are discarded; an existing day with the same label absorbs the new
// locations by appending, keeping document order.
func (st *parseState) flush() {
	if len(st.locations) == 0 {
		st.reset()
		return
	}

	description := strings.TrimSpace(strings.Join(st.description, "\n"))

	for i := range st.days {
		if st.days[i].Day != st.dayLabel {
			continue
		}
		d := &st.days[i]
		d.Locations = append(d.Locations, st.locations...)
		if d.Weather == "" {
			d.Weather = st.weather
		}
		if d.DailyCost == 0 {
			d.DailyCost = st.dailyCost
		}
		if d.Description == "" {
			d.Description = description
		}
		d.Tips = append(d.Tips, st.tips...)
		st.reset()
		return
	}

	st.days = append(st.days, types.DayItinerary{
		Day:         st.dayLabel,
		Locations:   st.locations,
		Weather:     st.weather,
		DailyCost:   st.dailyCost,
		Description: description,
		Tips:        st.tips,
	})
	st.reset()
}

func (st *parseState) reset() {
	st.locations = nil
	st.weather = ""
	st.dailyCost = 0
	st.description = nil
	st.tips = nil
	st.seenTable = false
}

// splitRow strips the outer pipes of a table line and trims every cell.
func splitRow(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) < 2 {
		return nil
	}
	parts = parts[1 : len(parts)-1]
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// parseTableRow maps one data row through the field map into a Location.
// Rows whose name cell is noise are rejected; positional reports whether
// the name or address came from the positional column guess rather than
// a classified header.
func parseTableRow(fields FieldMap, cells []string, parsedSoFar int) (types.Location, bool, bool) {
	name, namePositional := fields.Lookup(FieldName, cells)
	address, addrPositional := fields.Lookup(FieldAddress, cells)

	if !IsValidName(name) || IsTimeLike(name) {
		return types.Location{}, false, false
	}

	loc := types.Location{Name: name}

	orderCell, _ := fields.Lookup(FieldOrder, cells)
	if n, err := strconv.Atoi(orderCell); err == nil && n > 0 {
		loc.Order = n
	} else {
		loc.Order = parsedSoFar + 1
	}

	loc.Time, _ = fields.Lookup(FieldTime, cells)
	typeCell, _ := fields.Lookup(FieldType, cells)
	loc.Type = classifyLocationType(typeCell)

	if address != "" && address != "-" {
		loc.Address = address
	} else {
		loc.Address = name
	}

	loc.Duration, _ = fields.Lookup(FieldDuration, cells)
	loc.Cost, _ = fields.Lookup(FieldCost, cells)
	loc.Description, _ = fields.Lookup(FieldDescription, cells)

	if highlights, _ := fields.Lookup(FieldHighlights, cells); highlights != "" && highlights != "-" {
		loc.Highlights = splitList(highlights)
	}
	if food, _ := fields.Lookup(FieldFood, cells); food != "" && food != "-" {
		loc.Food = splitList(food)
	}
	if transport, _ := fields.Lookup(FieldTransportation, cells); transport != "" && transport != "-" {
		loc.Transportation = &types.Transportation{Method: transport}
	}

	return loc, namePositional || addrPositional, true
}

// parsePseudoDayItem extracts a Location from a transport/accommodation
// bullet line. Lines without a currency amount, and lines whose name is
// a price label rather than an entity, are discarded.
func parsePseudoDayItem(line, dayLabel string) (types.Location, bool) {
	m := listCostRe.FindStringSubmatch(line)
	if m == nil {
		return types.Location{}, false
	}
	text := strings.TrimSpace(markStripRe.ReplaceAllString(line, ""))
	name := strings.TrimSpace(colonSplitRe.Split(text, -1)[0])

	for _, label := range priceLabels {
		if strings.Contains(name, label) {
			return types.Location{}, false
		}
	}

	locType := types.LocationTransport
	if dayLabel == types.DayLabelHotel {
		locType = types.LocationHotel
	}
	return types.Location{
		Name:        name,
		Type:        locType,
		Address:     text,
		Cost:        m[1],
		Description: text,
	}, true
}

// classifyLocationType maps a free-text type hint to the canonical
// location type by keyword containment; anything unrecognized is an
// attraction.
func classifyLocationType(hint string) types.LocationType {
	switch {
	case strings.Contains(hint, "餐厅") || strings.Contains(hint, "美食"):
		return types.LocationRestaurant
	case strings.Contains(hint, "酒店") || strings.Contains(hint, "住宿"):
		return types.LocationHotel
	case strings.Contains(hint, "交通") || strings.Contains(hint, "高铁") || strings.Contains(hint, "火车"):
		return types.LocationTransport
	default:
		return types.LocationAttraction
	}
}

func splitList(s string) []string {
	parts := listSplitRe.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
