package provider

// Metric series names.
const (
	SeriesCPU        = "cpu"
	SeriesIO         = "io"
	SeriesNetworkIn  = "network_in"
	SeriesNetworkOut = "network_out"
	SeriesLoad       = "load_1"
)

// Metrics holds usage time series keyed by series name.
type Metrics struct {
	Series map[string]Series `json:"series"`
}

type Point struct {
	Timestamp int64   `json:"t"`
	Value     float64 `json:"v"`
}

type Series struct {
	Points  []Point       `json:"points"`
	Summary SeriesSummary `json:"summary"`
}

type SeriesSummary struct {
	Average float64 `json:"average"`
	Peak    float64 `json:"peak"`
	Last    float64 `json:"last"`
}

// NewSeries builds a series and its summary. An empty series summarizes to
// zeros.
func NewSeries(points []Point) Series {
	if points == nil {
		points = []Point{}
	}
	return Series{Points: points, Summary: summarize(points)}
}

func summarize(points []Point) SeriesSummary {
	if len(points) == 0 {
		return SeriesSummary{}
	}
	var sum float64
	peak := points[0].Value
	for _, p := range points {
		sum += p.Value
		if p.Value > peak {
			peak = p.Value
		}
	}
	return SeriesSummary{
		Average: sum / float64(len(points)),
		Peak:    peak,
		Last:    points[len(points)-1].Value,
	}
}

// pairsToPoints converts [[timestamp, value], ...] pairs as returned by
// provider stats endpoints. Timestamps in milliseconds are reduced to seconds.
func pairsToPoints(pairs [][]float64) []Point {
	points := make([]Point, 0, len(pairs))
	for _, p := range pairs {
		if len(p) < 2 {
			continue
		}
		ts := int64(p[0])
		if ts > 1e12 {
			ts /= 1000
		}
		points = append(points, Point{Timestamp: ts, Value: p[1]})
	}
	return points
}
