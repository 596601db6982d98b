package playerservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	playerdb "github.com/tnt-tag-history/tnt-history/app/modules/player/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	chartBackground = drawing.ColorFromHex("101418")
	chartBar        = drawing.ColorFromHex("e0a100")
	chartText       = drawing.ColorFromHex("e6e6e6")
)

// YearCount is the number of mentioned events in one year.
type YearCount struct {
	Year  int
	Count int
}

// ActivityChart renders a PNG bar chart of the player's mentioned events per year.
func (s *PlayerService) ActivityChart(ctx context.Context, id string) (results.OperationResult[[]byte, error], error) {
	return withTelemetry(s, ctx, "ActivityChart", id, func(ctx context.Context) (results.OperationResult[[]byte, error], error) {
		player, err := s.repo.GetByID(ctx, s.db, id)
		if err != nil {
			if errors.Is(err, playerdb.ErrNotFound) {
				return results.FailureResult[[]byte, error](ErrPlayerNotFound), nil
			}
			return results.OperationResult[[]byte, error]{}, fmt.Errorf("load player: %w", err)
		}

		png, err := renderActivityChart(player.CurrentIGN, countByYear(s.summarizeEvents(ctx, player.Events)))
		if err != nil {
			return results.OperationResult[[]byte, error]{}, fmt.Errorf("render chart: %w", err)
		}
		return results.SuccessResult[[]byte, error](png), nil
	})
}

// countByYear returns one entry per year from the first to the last event,
// including years with no events.
func countByYear(events []EventSummary) []YearCount {
	if len(events) == 0 {
		return nil
	}
	counts := map[int]int{}
	minYear, maxYear := events[0].Date.Year(), events[0].Date.Year()
	for _, e := range events {
		y := e.Date.Year()
		counts[y]++
		minYear = min(minYear, y)
		maxYear = max(maxYear, y)
	}
	out := make([]YearCount, 0, maxYear-minYear+1)
	for y := minYear; y <= maxYear; y++ {
		out = append(out, YearCount{Year: y, Count: counts[y]})
	}
	return out
}

func renderActivityChart(name string, years []YearCount) ([]byte, error) {
	if len(years) == 0 {
		return renderNoDataPlaceholder()
	}

	bars := make([]chart.Value, 0, len(years))
	for _, yc := range years {
		bars = append(bars, chart.Value{
			Label: strconv.Itoa(yc.Year),
			Value: float64(yc.Count),
			Style: chart.Style{FillColor: chartBar, StrokeColor: chartBar},
		})
	}

	graph := chart.BarChart{
		Title:      name + " - events per year",
		TitleStyle: chart.Style{FontColor: chartText},
		Width:      800,
		Height:     400,
		BarWidth:   40,
		Background: chart.Style{
			FillColor: chartBackground,
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: chartBackground},
		XAxis:  chart.Style{FontColor: chartText, StrokeColor: chartText},
		YAxis: chart.YAxis{
			Style:          chart.Style{FontColor: chartText, StrokeColor: chartText},
			ValueFormatter: chart.IntValueFormatter,
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// renderNoDataPlaceholder draws the message straight onto a renderer, since
// the chart types refuse to render without at least one series.
func renderNoDataPlaceholder() ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No events yet"
	)

	r, err := chart.PNG(width, height)
	if err != nil {
		return nil, err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}

	r.SetFillColor(chartBackground)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.Close()
	r.Fill()

	r.SetFont(font)
	r.SetFontColor(chartText)
	r.SetFontSize(12.0)
	tb := r.MeasureText(msg)
	r.Text(msg, (width-tb.Width())/2, (height+tb.Height())/2)

	buffer := bytes.NewBuffer([]byte{})
	if err := r.Save(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
