package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"
	"github.com/sadopc/worklog/internal/store"
	"github.com/sadopc/worklog/internal/tracker"
)

// WorkReport renders a monthly work report PDF: one row per worked day with
// its time ranges, task names and hours, followed by the month total and
// earnings at the given rate.
func WorkReport(entries []store.TimeEntry, tasks map[int64]*store.Task, rate float64, monthStart time.Time, path string) error {
	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 10, 20)

	m.RegisterHeader(func() {
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text("Work Report", props.Text{
					Top:   3,
					Style: consts.Bold,
					Align: consts.Center,
					Size:  16,
				})
			})
		})
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text(monthStart.Format("January 2006"), props.Text{
					Top:   3,
					Align: consts.Center,
					Size:  12,
				})
			})
		})
	})

	type dayGroup struct {
		ranges   []string
		names    []string
		seen     map[string]bool
		totalSec int64
	}

	groups := make(map[string]*dayGroup)
	var keys []string
	var totalSec int64

	for _, e := range entries {
		day := e.StartTime.Local().Format("2006-01-02")
		g, ok := groups[day]
		if !ok {
			g = &dayGroup{seen: make(map[string]bool)}
			groups[day] = g
			keys = append(keys, day)
		}
		if e.EndTime != nil {
			g.ranges = append(g.ranges, fmt.Sprintf("%s-%s",
				e.StartTime.Local().Format("15:04"),
				e.EndTime.Local().Format("15:04")))
		}
		if name := taskName(tasks, e.TaskID); !g.seen[name] {
			g.seen[name] = true
			g.names = append(g.names, name)
		}
		g.totalSec += e.Duration
		totalSec += e.Duration
	}
	sort.Strings(keys)

	headers := []string{"Date", "Time", "Tasks", "Hours"}
	rows := make([][]string, 0, len(keys))
	for _, day := range keys {
		g := groups[day]
		rows = append(rows, []string{
			day,
			strings.Join(g.ranges, ", "),
			strings.Join(g.names, ", "),
			fmt.Sprintf("%.2f h", float64(g.totalSec)/3600),
		})
	}

	m.TableList(headers, rows, props.TableList{
		HeaderProp: props.TableListContent{
			Size:      10,
			GridSizes: []uint{2, 4, 4, 2},
		},
		ContentProp: props.TableListContent{
			Size:      10,
			GridSizes: []uint{2, 4, 4, 2},
		},
		Align:                consts.Center,
		AlternatedBackground: &color.Color{Red: 240, Green: 240, Blue: 240},
		HeaderContentSpace:   1,
		Line:                 false,
	})

	m.Row(20, func() {
		m.Col(12, func() {
			summary := fmt.Sprintf("Total: %.2f h    Earnings: %d",
				float64(totalSec)/3600, tracker.Earnings(totalSec, rate))
			m.Text(summary, props.Text{
				Top:   10,
				Style: consts.Bold,
				Align: consts.Right,
				Size:  12,
			})
		})
	})

	return m.OutputFileAndClose(path)
}
