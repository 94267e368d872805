// Package integration handles external service interactions
package integration

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/abelzeko/panchayat-water/internal/entities"
	"go.uber.org/zap"
)

// LabReportScraper reads water-quality results published as an HTML table
// by the district testing laboratory
type LabReportScraper struct {
	client *http.Client
	logger *zap.Logger
}

// NewLabReportScraper creates a new lab report scraper
func NewLabReportScraper(logger *zap.Logger) *LabReportScraper {
	return &LabReportScraper{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

type labColumn int

const (
	colSamplePoint labColumn = iota
	colPH
	colTurbidity
	colTDS
	colChloride
	colChlorine
	colColiform
	colNitrate
	colFluoride
	colIron
)

// header aliases, lower-cased with any "(unit)" suffix removed
var headerAliases = map[string]labColumn{
	"sample point":           colSamplePoint,
	"sample":                 colSamplePoint,
	"source":                 colSamplePoint,
	"ph":                     colPH,
	"turbidity":              colTurbidity,
	"tds":                    colTDS,
	"total dissolved solids": colTDS,
	"chloride":               colChloride,
	"chlorine":               colChlorine,
	"residual chlorine":      colChlorine,
	"free chlorine":          colChlorine,
	"coliform":               colColiform,
	"total coliform":         colColiform,
	"nitrate":                colNitrate,
	"fluoride":               colFluoride,
	"iron":                   colIron,
}

// FetchLabReport downloads and parses a lab report page
func (s *LabReportScraper) FetchLabReport(url string) ([]entities.LabSample, error) {
	s.logger.Info("Sending HTTP request for lab report", zap.String("url", url))
	res, err := s.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch the lab report: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d %s", res.StatusCode, res.Status)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse the lab report: %w", err)
	}

	return s.ParseLabReport(doc)
}

// ParseLabReport extracts samples from the first table whose header names a
// sample point and every parameter. Rows with a missing or unreadable value
// are skipped.
func (s *LabReportScraper) ParseLabReport(doc *goquery.Document) ([]entities.LabSample, error) {
	var (
		samples   []entities.LabSample
		found     bool
		processed int
		skipped   int
	)

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		columns := headerColumns(table)
		if columns == nil {
			return true
		}
		found = true

		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			cells := row.Find("td")
			if i == 0 || cells.Length() == 0 {
				return
			}
			processed++

			sample, err := parseLabRow(cells, columns)
			if err != nil {
				s.logger.Warn("Skipping lab report row", zap.Int("row", processed), zap.Error(err))
				skipped++
				return
			}
			samples = append(samples, sample)
		})
		return false
	})

	if !found {
		return nil, fmt.Errorf("no lab result table found")
	}

	s.logger.Info("Parsed lab report",
		zap.Int("rows", processed),
		zap.Int("samples", len(samples)),
		zap.Int("skipped", skipped),
	)
	return samples, nil
}

// headerColumns maps each known column to its cell index, or returns nil
// when the table does not carry every column
func headerColumns(table *goquery.Selection) map[labColumn]int {
	columns := make(map[labColumn]int)
	table.Find("tr").First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
		name := strings.ToLower(strings.TrimSpace(cell.Text()))
		if idx := strings.Index(name, "("); idx >= 0 {
			name = strings.TrimSpace(name[:idx])
		}
		if col, ok := headerAliases[name]; ok {
			if _, seen := columns[col]; !seen {
				columns[col] = i
			}
		}
	})
	if len(columns) != int(colIron)+1 {
		return nil
	}
	return columns
}

func parseLabRow(cells *goquery.Selection, columns map[labColumn]int) (entities.LabSample, error) {
	text := func(col labColumn) string {
		return strings.TrimSpace(cells.Eq(columns[col]).Text())
	}
	number := func(col labColumn, name string) (float64, error) {
		raw := text(col)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q", name, raw)
		}
		return v, nil
	}

	var (
		sample entities.LabSample
		err    error
	)
	sample.SamplePoint = text(colSamplePoint)
	if sample.SamplePoint == "" {
		return sample, fmt.Errorf("missing sample point")
	}

	r := &sample.Reading
	if r.PH, err = number(colPH, "pH"); err != nil {
		return sample, err
	}
	if r.Turbidity, err = number(colTurbidity, "turbidity"); err != nil {
		return sample, err
	}
	if r.TDS, err = number(colTDS, "TDS"); err != nil {
		return sample, err
	}
	if r.Chloride, err = number(colChloride, "chloride"); err != nil {
		return sample, err
	}
	if r.Chlorine, err = number(colChlorine, "chlorine"); err != nil {
		return sample, err
	}
	if r.ColiformPresent, err = parseColiform(text(colColiform)); err != nil {
		return sample, err
	}
	if r.Nitrate, err = number(colNitrate, "nitrate"); err != nil {
		return sample, err
	}
	if r.Fluoride, err = number(colFluoride, "fluoride"); err != nil {
		return sample, err
	}
	if r.Iron, err = number(colIron, "iron"); err != nil {
		return sample, err
	}
	return sample, nil
}

func parseColiform(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "present", "positive", "detected", "yes", "+":
		return true, nil
	case "absent", "negative", "not detected", "nil", "no", "-", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid coliform value %q", raw)
}
