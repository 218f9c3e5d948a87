package moss

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"vasiluta.ro/plism/similarity"
)

// Cells read like "turing/cc/alice (40%)".
var cellPattern = regexp.MustCompile(`[/\\](\w+) \((\d+)%\)`)

func parseCell(node *html.Node) (similarity.Observation, bool) {
	sel := goquery.NewDocumentFromNode(node)

	m := cellPattern.FindStringSubmatch(sel.Text())
	if m == nil {
		return similarity.Observation{}, false
	}
	percent, err := strconv.Atoi(m[2])
	if err != nil {
		zap.S().Warnf("Invalid percentage %q", m[2])
		return similarity.Observation{}, false
	}
	link, _ := sel.Find("a").First().Attr("href")
	return similarity.Observation{
		Hacker:  m[1],
		Percent: percent,
		Link:    strings.TrimSpace(link),
	}, true
}

// ParseResultPage reads both sides of every compared pair from a MOSS
// result page. A page without a table yields no observations.
func ParseResultPage(r io.Reader) ([]similarity.Observation, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		zap.S().Warn("Result page has no table")
		return nil, nil
	}

	var obs []similarity.Observation
	// The first row holds the column headers
	for i, row := range table.Find("tr").Nodes {
		if i == 0 {
			continue
		}
		cells := goquery.NewDocumentFromNode(row).Find("td").Nodes
		if len(cells) < 2 {
			continue
		}
		for _, cell := range cells[:2] {
			if o, ok := parseCell(cell); ok {
				obs = append(obs, o)
			}
		}
	}
	return obs, nil
}
