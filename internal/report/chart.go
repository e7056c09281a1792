package report

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"patient-monitor/internal/tracker"
)

var ErrNoReadings = errors.New("no readings recorded for this vital type")

type band struct{ low, high float64 }

// Typical adult resting ranges drawn as dashed guide lines.
var referenceBands = map[tracker.VitalType][]band{
	tracker.VitalBloodPressure:    {{low: 90, high: 120}, {low: 60, high: 80}},
	tracker.VitalGlucose:          {{low: 70, high: 140}},
	tracker.VitalHeartRate:        {{low: 60, high: 100}},
	tracker.VitalTemperature:      {{low: 36.1, high: 37.2}},
	tracker.VitalOxygenSaturation: {{low: 95, high: 100}},
}

// VitalsChart renders the readings of one vital type as an HTML line chart, oldest first.
// Blood pressure is drawn as two series.
func VitalsChart(vitals []tracker.VitalSign, t tracker.VitalType) (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", tracker.ErrUnknownVitalType, t)
	}

	readings := make([]tracker.VitalSign, 0, len(vitals))
	for _, v := range vitals {
		if v.Type() == t {
			readings = append(readings, v)
		}
	}
	if len(readings) == 0 {
		return "", ErrNoReadings
	}
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})

	unit := readings[len(readings)-1].Unit
	xAxis := make([]string, 0, len(readings))
	for _, v := range readings {
		xAxis = append(xAxis, v.Timestamp.Format("Jan 2 15:04"))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: string(t),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    string(t),
			Subtitle: unit,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(t == tracker.VitalBloodPressure),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  unit,
			Scale: opts.Bool(true),
		}),
	)
	line.SetXAxis(xAxis)

	// Guide lines only make sense in the unit they were written for.
	var bands []band
	if unit == t.DefaultUnit() {
		bands = referenceBands[t]
	}
	bandAt := func(i int) []band {
		if i < len(bands) {
			return bands[i : i+1]
		}
		return nil
	}
	if t == tracker.VitalBloodPressure {
		sys := make([]opts.LineData, 0, len(readings))
		dia := make([]opts.LineData, 0, len(readings))
		for _, v := range readings {
			m := v.Measurement.(tracker.BloodPressure)
			sys = append(sys, opts.LineData{Value: m.Systolic})
			dia = append(dia, opts.LineData{Value: m.Diastolic})
		}
		line.AddSeries("Systolic", sys, seriesOptions(bandAt(0)...)...)
		line.AddSeries("Diastolic", dia, seriesOptions(bandAt(1)...)...)
	} else {
		data := make([]opts.LineData, 0, len(readings))
		for _, v := range readings {
			data = append(data, opts.LineData{Value: v.Measurement.(tracker.Scalar).Value()})
		}
		line.AddSeries(string(t), data, seriesOptions(bandAt(0)...)...)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func seriesOptions(bands ...band) []charts.SeriesOpts {
	out := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			ShowSymbol: opts.Bool(true),
		}),
		charts.WithMarkPointNameTypeItemOpts(
			opts.MarkPointNameTypeItem{Name: "Max", Type: "max"},
			opts.MarkPointNameTypeItem{Name: "Min", Type: "min"},
		),
	}
	if len(bands) == 0 {
		return append(out, charts.WithMarkLineNameTypeItemOpts(
			opts.MarkLineNameTypeItem{Name: "Average", Type: "average"},
		))
	}

	var items []interface{}
	for _, b := range bands {
		items = append(items,
			opts.MarkLineNameYAxisItem{Name: "Low", YAxis: b.low},
			opts.MarkLineNameYAxisItem{Name: "High", YAxis: b.high},
		)
	}
	return append(out, func(s *charts.SingleSeries) {
		s.MarkLines = &opts.MarkLines{
			Data: items,
			MarkLineStyle: opts.MarkLineStyle{
				Symbol: []string{"none", "none"},
				LineStyle: &opts.LineStyle{
					Color: "rgba(128, 128, 128, 0.6)",
					Type:  "dashed",
					Width: 1.5,
				},
			},
		}
	})
}
