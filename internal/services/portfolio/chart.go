package portfolio

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/mhayashi/kabuto/internal/performance"
)

// RenderGrowthChart renders the monthly series as a PNG line chart and
// caches it under charts/. Two series: market value (blue solid) and
// total cost (gray dashed).
func (s *Service) RenderGrowthChart(ctx context.Context) ([]byte, error) {
	records, _, err := s.CalculatePerformance(ctx)
	if err != nil {
		return nil, err
	}
	series := performance.MonthlySeries(records)
	if len(series) < 2 {
		return nil, fmt.Errorf("need at least 2 months of data, got %d", len(series))
	}

	xValues := make([]time.Time, len(series))
	valueY := make([]float64, len(series))
	costY := make([]float64, len(series))
	for i, m := range series {
		date, err := performance.ParseRecordDate(m.Date)
		if err != nil {
			return nil, fmt.Errorf("bad series date %q: %w", m.Date, err)
		}
		xValues[i] = date
		valueY[i] = m.MarketValue
		costY[i] = m.TotalCost
	}

	valueSeries := chart.TimeSeries{
		Name: "Market Value",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: valueY,
	}

	costSeries := chart.TimeSeries{
		Name: "Total Cost",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: xValues,
		YValues: costY,
	}

	graph := chart.Chart{
		Title:  "Portfolio Growth",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("¥%.1fM", f/1_000_000)
				}
				return ""
			},
		},
		Series: []chart.Series{
			valueSeries,
			costSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	png := buf.Bytes()
	if err := s.storage.WriteRaw("charts", "growth.png", png); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to cache growth chart")
	}
	return png, nil
}
