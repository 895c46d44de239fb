package models

import "github.com/Mugunth140/medical-billing/internal/domain/catalog"

// MedicineModel is the persistence model for the Medicine catalog entry
type MedicineModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"not null;index:idx_medicines_name"`
	GenericName  string
	Manufacturer string
	HSNCode      string `gorm:"column:hsn_code"`
	Category     string
	DrugType     string
	PackSize     string
	Unit         string `gorm:"not null;default:strip"`
	ReorderLevel int    `gorm:"not null;default:10"`
	IsActive     bool   `gorm:"not null;default:true;index:idx_medicines_active"`
	TimestampModel
}

// TableName returns the table name for GORM
func (MedicineModel) TableName() string {
	return "medicines"
}

// ToDomain converts the persistence model to a domain Medicine
func (m *MedicineModel) ToDomain() *catalog.Medicine {
	return &catalog.Medicine{
		ID:           m.ID,
		Name:         m.Name,
		GenericName:  m.GenericName,
		Manufacturer: m.Manufacturer,
		HSNCode:      m.HSNCode,
		Category:     m.Category,
		DrugType:     m.DrugType,
		PackSize:     m.PackSize,
		Unit:         m.Unit,
		ReorderLevel: m.ReorderLevel,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// MedicineModelFromDomain converts a domain Medicine to its persistence model
func MedicineModelFromDomain(e *catalog.Medicine) *MedicineModel {
	return &MedicineModel{
		ID:           e.ID,
		Name:         e.Name,
		GenericName:  e.GenericName,
		Manufacturer: e.Manufacturer,
		HSNCode:      e.HSNCode,
		Category:     e.Category,
		DrugType:     e.DrugType,
		PackSize:     e.PackSize,
		Unit:         e.Unit,
		ReorderLevel: e.ReorderLevel,
		IsActive:     e.IsActive,
		TimestampModel: TimestampModel{
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
	}
}
