package source

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/econoscale/econoscale/pkg/models"
)

// gdpShape tags the two known GDP response variants. The upstream is one
// logical endpoint that has shipped both envelopes over time, so shape
// detection is an explicit two-variant decode, not duck typing.
type gdpShape int

const (
	shapeUnknown gdpShape = iota
	shapeValues           // {"values":   {"NGDPD": {CC: {year: v}}}}
	shapeDatasets         // {"datasets": {"NGDPD": {CC: {year: v}}}}
)

// gdpIndicator is the nominal-GDP-in-billions-of-USD indicator key.
const gdpIndicator = "NGDPD"

// ErrTooFewCountries marks a structurally valid GDP payload that carries
// fewer countries than the configured minimum. Such payloads indicate a
// truncated upstream response and would corrupt the ranking if accepted.
type ErrTooFewCountries struct {
	Got, Min int
}

func (e *ErrTooFewCountries) Error() string {
	return fmt.Sprintf("gdp payload has %d countries, need at least %d", e.Got, e.Min)
}

var errUnknownGdpShape = errors.New("gdp payload matches neither known response shape")

// detectGdpShape probes the body for the two known envelopes and returns
// the per-country table plus the shape tag.
func detectGdpShape(body []byte) (gjson.Result, gdpShape) {
	if table := gjson.GetBytes(body, "values."+gdpIndicator); table.IsObject() {
		return table, shapeValues
	}
	if table := gjson.GetBytes(body, "datasets."+gdpIndicator); table.IsObject() {
		return table, shapeDatasets
	}
	return gjson.Result{}, shapeUnknown
}

// decodeGdp parses and validates a GDP feed body, selecting each
// country's most recent annual estimate no later than the current year.
func decodeGdp(body []byte, minCountries int) (*models.GdpData, error) {
	return decodeGdpAt(body, minCountries, time.Now().Year())
}

func decodeGdpAt(body []byte, minCountries, maxYear int) (*models.GdpData, error) {
	table, shape := detectGdpShape(body)
	if shape == shapeUnknown {
		return nil, errUnknownGdpShape
	}

	countries := make(map[string]float64)
	latestYear := 0

	table.ForEach(func(country, years gjson.Result) bool {
		if !years.IsObject() {
			return true
		}
		bestYear := 0
		bestValue := 0.0
		years.ForEach(func(year, value gjson.Result) bool {
			y, err := strconv.Atoi(year.String())
			if err != nil || y > maxYear || y <= bestYear {
				return true
			}
			v := value.Float()
			if v < 0 {
				return true
			}
			bestYear, bestValue = y, v
			return true
		})
		if bestYear == 0 {
			return true
		}
		countries[country.String()] = bestValue
		if bestYear > latestYear {
			latestYear = bestYear
		}
		return true
	})

	if len(countries) < minCountries {
		return nil, &ErrTooFewCountries{Got: len(countries), Min: minCountries}
	}

	return &models.GdpData{
		Year:      strconv.Itoa(latestYear),
		Countries: countries,
	}, nil
}
