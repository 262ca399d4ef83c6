package parser

import (
	"strings"

	"voyager.com/tracker/hand"
)

// streetMarker ties a street name to the delimiter line that starts it in the
// raw text. An empty marker means the street starts at the beginning of the
// hand text (stud antes).
type streetMarker struct {
	name   string
	marker string
}

var holdMarkers = []streetMarker{
	{hand.StreetPreflop, "** Dealing down cards **"},
	{hand.StreetFlop, "** Dealing Flop **"},
	{hand.StreetTurn, "** Dealing Turn **"},
	{hand.StreetRiver, "** Dealing River **"},
}

var studMarkers = []streetMarker{
	{hand.StreetAntes, ""},
	{hand.StreetThird, "** Dealing down cards **"},
	{hand.StreetFourth, "**** dealing 4th street ****"},
	{hand.StreetFifth, "**** dealing 5th street ****"},
	{hand.StreetSixth, "**** dealing 6th street ****"},
	{hand.StreetSeventh, "**** dealing river ****"},
}

// MarkStreets partitions raw hand text into ordered street segments. Each
// street's span runs from its own delimiter to the next delimiter that is
// actually present, or to end of text. A street whose delimiter never appears
// is absent from the output; a later street never needs an earlier street's
// delimiter to close it.
func MarkStreets(text string, base string) []hand.Street {
	markers := holdMarkers
	if base == hand.BaseStud {
		markers = studMarkers
	}

	type span struct {
		name  string
		start int // content start
		at    int // delimiter position
	}
	var found []span
	searchFrom := 0
	for _, m := range markers {
		if m.marker == "" {
			found = append(found, span{name: m.name, start: 0, at: 0})
			continue
		}
		idx := strings.Index(text[searchFrom:], m.marker)
		if idx < 0 {
			continue
		}
		at := searchFrom + idx
		found = append(found, span{name: m.name, start: at + len(m.marker), at: at})
		searchFrom = at + len(m.marker)
	}

	streets := make([]hand.Street, 0, len(found))
	for i, f := range found {
		end := len(text)
		if i+1 < len(found) {
			end = found[i+1].at
		}
		streets = append(streets, hand.Street{Name: f.name, Text: text[f.start:end]})
	}
	return streets
}
