package render

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const chartID = "graph"

// layoutDoneJS flips window.__layoutDone once the force layout settles, with
// a hard timeout so a chart that never fires "finished" still screenshots.
const layoutDoneJS = `
(function () {
	var chart = goecharts_` + chartID + `;
	window.__layoutDone = false;
	chart.on('finished', function () {
		window.__layoutDone = true;
	});
	setTimeout(function () {
		window.__layoutDone = true;
	}, 5000);
})();`

// BuildChartHTML renders the graph into a self-contained HTML page ready for
// a headless browser. Width and height are CSS pixels.
func BuildChartHTML(nodes []Node, edges []Edge, style Style, width, height int) ([]byte, error) {
	style = style.Normalize()

	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID:         chartID,
			Width:           fmt.Sprintf("%dpx", width),
			Height:          fmt.Sprintf("%dpx", height),
			BackgroundColor: "#ffffff",
		}),
	)

	labels := make(map[int64]string, len(nodes))
	chartNodes := make([]opts.GraphNode, 0, len(nodes))
	for _, n := range nodes {
		labels[n.ID] = n.Label
		chartNodes = append(chartNodes, opts.GraphNode{
			Name:       n.Label,
			SymbolSize: float32(style.NodeSize),
			ItemStyle:  &opts.ItemStyle{Opacity: opts.Float(float32(style.Opacity))},
		})
	}

	chartLinks := make([]opts.GraphLink, 0, len(edges))
	for _, e := range edges {
		from, okFrom := labels[e.From]
		to, okTo := labels[e.To]
		if !okFrom || !okTo {
			// Dangling edge: endpoint deleted between snapshot and render.
			continue
		}
		chartLinks = append(chartLinks, opts.GraphLink{Source: from, Target: to})
	}

	// Force layout needs edges to spread nodes; fall back to a circle for an
	// edgeless graph so the nodes do not pile up at the origin.
	layout := "force"
	if len(chartLinks) == 0 {
		layout = "circular"
	}

	graph.AddSeries("relations", chartNodes, chartLinks,
		charts.WithGraphChartOpts(opts.GraphChart{
			Layout: layout,
			Force: &opts.GraphForce{
				Repulsion:  400,
				EdgeLength: 120,
			},
			Roam:       opts.Bool(false),
			EdgeSymbol: []string{"none", "arrow"},
		}),
		charts.WithLabelOpts(opts.Label{
			Show:     opts.Bool(true),
			Position: "right",
			FontSize: float32(style.FontSize),
		}),
		charts.WithLineStyleOpts(opts.LineStyle{
			Width:     float32(style.LineWidth),
			Opacity:   opts.Float(float32(style.Opacity)),
			Curveness: 0.1,
		}),
	)

	graph.AddJSFuncs(layoutDoneJS)

	var buf bytes.Buffer
	if err := graph.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render chart HTML: %w", err)
	}

	return buf.Bytes(), nil
}
