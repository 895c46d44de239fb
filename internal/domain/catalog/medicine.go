package catalog

import "time"

// Medicine is a catalog entry sold at the counter. Rows are seeded once from
// the bundled catalog and edited by the billing UI afterwards.
type Medicine struct {
	ID           int64
	Name         string
	GenericName  string
	Manufacturer string
	HSNCode      string
	Category     string
	DrugType     string
	PackSize     string
	Unit         string
	ReorderLevel int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BundleImportColumns are copied verbatim from the bundled catalog
var BundleImportColumns = []string{
	"name",
	"generic_name",
	"manufacturer",
	"hsn_code",
	"category",
	"drug_type",
	"pack_size",
	"unit",
	"reorder_level",
	"is_active",
}
