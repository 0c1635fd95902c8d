package syndata

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Cohort is an in-memory synthetic clinical dataset with planted validation
// hazards: a verbatim copy of the diagnosis, a strong cognitive score, a
// multi-site column and an admission year. Running the audit against it
// should flag exactly the planted problems.
type Cohort struct {
	Headers []string
	Rows    [][]string

	// Numeric series kept for assertions in tests.
	Diagnosis []float64
	MMSE      []float64
	Age       []float64
}

// Config controls the planted structure of the cohort.
type Config struct {
	Rows int
	Seed int64

	// Sites is the number of distinct hospital groups.
	Sites int
	// StartYear anchors the admission year range (8 consecutive years).
	StartYear int
	// PlantLeak controls whether the verbatim target copy is included.
	PlantLeak bool
}

// DefaultConfig matches the shape the audit's own test fixtures use.
func DefaultConfig() Config {
	return Config{
		Rows:      500,
		Seed:      42,
		Sites:     3,
		StartYear: 2015,
		PlantLeak: true,
	}
}

// Generate builds a deterministic cohort for the given config.
func Generate(cfg Config) (*Cohort, error) {
	if cfg.Rows <= 0 {
		return nil, fmt.Errorf("rows must be > 0")
	}
	if cfg.Sites <= 0 {
		return nil, fmt.Errorf("sites must be > 0")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	diagnosis := make([]float64, cfg.Rows)
	age := make([]float64, cfg.Rows)
	mmse := make([]float64, cfg.Rows)
	functional := make([]float64, cfg.Rows)
	bmi := make([]float64, cfg.Rows)
	smoking := make([]float64, cfg.Rows)
	for i := 0; i < cfg.Rows; i++ {
		y := float64(i % 2)
		diagnosis[i] = y

		// Diagnosed patients skew older and score lower on the cognitive
		// batteries, with overlap so the signal is strong but not a proxy.
		age[i] = 62 + 8*y + rng.NormFloat64()*9
		mmse[i] = 24 - 6*y + rng.NormFloat64()*4
		functional[i] = 7 - 3*y + rng.NormFloat64()*2
		bmi[i] = 22 + rng.NormFloat64()*4
		if rng.Float64() < 0.25+0.1*y {
			smoking[i] = 1
		}
	}

	headers := []string{"PatientID", "Age", "BMI", "Smoking", "MMSE", "FunctionalAssessment", "Hospital", "AdmissionYear"}
	if cfg.PlantLeak {
		headers = append(headers, "DischargeCode")
	}
	headers = append(headers, "Diagnosis")

	rows := make([][]string, cfg.Rows)
	for i := 0; i < cfg.Rows; i++ {
		r := make([]string, 0, len(headers))
		r = append(r, strconv.Itoa(4751+i))
		r = append(r, fToStr(age[i], 1))
		r = append(r, fToStr(bmi[i], 2))
		r = append(r, strconv.Itoa(int(smoking[i])))
		r = append(r, fToStr(clamp(mmse[i], 0, 30), 1))
		r = append(r, fToStr(clamp(functional[i], 0, 10), 1))
		r = append(r, fmt.Sprintf("hospital_%d", i%cfg.Sites))
		r = append(r, strconv.Itoa(cfg.StartYear+i%8))
		if cfg.PlantLeak {
			// The planted leak: a post-outcome administrative code that is a
			// deterministic function of the diagnosis.
			r = append(r, strconv.Itoa(int(diagnosis[i])))
		}
		r = append(r, strconv.Itoa(int(diagnosis[i])))
		rows[i] = r
	}

	return &Cohort{
		Headers:   headers,
		Rows:      rows,
		Diagnosis: diagnosis,
		MMSE:      mmse,
		Age:       age,
	}, nil
}

// WriteCSV writes the cohort as a CSV file.
func WriteCSV(path string, c *Cohort) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(c.Headers); err != nil {
		return err
	}
	for _, row := range c.Rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteXLSX writes the cohort as a single-sheet workbook.
func WriteXLSX(path string, c *Cohort) error {
	f := excelize.NewFile()

	sheet := "Sheet1"
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return err
		}
		f.SetActiveSheet(idx)
	}

	for i, h := range c.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r := 0; r < len(c.Rows); r++ {
		for col, v := range c.Rows[r] {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

func fToStr(x float64, decimals int) string {
	p := math.Pow10(decimals)
	x = math.Round(x*p) / p
	return strconv.FormatFloat(x, 'f', decimals, 64)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
