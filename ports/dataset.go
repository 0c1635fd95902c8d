package ports

import (
	"clinaudit/domain/table"
)

// DatasetReader loads the tabular dataset under audit.
type DatasetReader interface {
	Read() (*table.Dataset, error)
	// Path identifies the source for run manifests and logs.
	Path() string
}
