package tabular

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clinaudit/domain/core"
	"clinaudit/domain/table"

	"github.com/xuri/excelize/v2"
)

// DataReader loads a tabular dataset from CSV or Excel files into the domain
// table model, sniffing numeric vs categorical per column from the values.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader for the given path, dispatching on extension.
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "csv"
	if ext == ".xlsx" || ext == ".xlsm" {
		fileType = "xlsx"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// FirstExisting probes candidate paths in order and returns a reader for the
// first that exists.
func FirstExisting(candidates []string) (*DataReader, error) {
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return NewDataReader(p), nil
		}
	}
	return nil, core.NewDataNotFoundError(candidates)
}

// Path returns the file path behind the reader.
func (r *DataReader) Path() string { return r.filePath }

// Read loads the file into a dataset.
func (r *DataReader) Read() (*table.Dataset, error) {
	log.Printf("[DataReader] Reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, core.NewDataNotFoundError([]string{r.filePath})
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType))
	}
	return buildDataset(rows)
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)",
		float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	readStart := time.Now()
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	log.Printf("[DataReader] Sheet %s read in %.2fms (%d rows)",
		sheet, float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// buildDataset converts raw string rows into typed columns. A column is
// numeric when every non-missing cell parses as a float.
func buildDataset(rows [][]string) (*table.Dataset, error) {
	header := rows[0]
	data := rows[1:]

	columns := make([]table.Column, 0, len(header))
	for j, rawName := range header {
		name := strings.TrimSpace(rawName)
		if name == "" {
			name = fmt.Sprintf("column_%d", j+1)
		}

		cells := make([]string, len(data))
		for i, row := range data {
			if j < len(row) {
				cells[i] = strings.TrimSpace(row[j])
			}
		}

		numeric := true
		for _, cell := range cells {
			if isMissingCell(cell) {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric = false
				break
			}
		}

		if numeric {
			floats := make([]float64, len(cells))
			for i, cell := range cells {
				if isMissingCell(cell) {
					floats[i] = math.NaN()
					continue
				}
				floats[i], _ = strconv.ParseFloat(cell, 64)
			}
			columns = append(columns, table.Column{
				Name:   core.ColumnName(name),
				DType:  table.DTypeNumeric,
				Floats: floats,
			})
			continue
		}

		strs := make([]string, len(cells))
		for i, cell := range cells {
			if isMissingCell(cell) {
				continue // empty string marks missing
			}
			strs[i] = cell
		}
		columns = append(columns, table.Column{
			Name:    core.ColumnName(name),
			DType:   table.DTypeCategorical,
			Strings: strs,
		})
	}

	d, err := table.NewDataset(columns)
	if err != nil {
		return nil, err
	}
	log.Printf("[DataReader] Dataset loaded: %d rows, %d columns", d.NumRows(), d.NumCols())
	return d, nil
}

func isMissingCell(cell string) bool {
	switch strings.ToLower(cell) {
	case "", "na", "n/a", "nan", "null":
		return true
	}
	return false
}
