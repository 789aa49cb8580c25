package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendorhub/backend/internal/domain/vendor"
)

// Vendor row for the vendors table
type Vendor struct {
	TenantModel
	Code          string              `gorm:"type:varchar(50);not null;index"`
	LegalName     string              `gorm:"type:varchar(300);not null"`
	TradeName     string              `gorm:"type:varchar(300)"`
	PAN           string              `gorm:"type:varchar(10);index"`
	Status        string              `gorm:"type:varchar(20);not null;default:'draft'"`
	ContactName   string              `gorm:"type:varchar(100)"`
	ContactEmail  string              `gorm:"type:varchar(200)"`
	ContactPhone  string              `gorm:"type:varchar(50)"`
	Registrations []GSTINRegistration `gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Vendor) TableName() string {
	return "vendors"
}

// GSTINRegistration row for the vendor_gstin_registrations table.
// Rows are tenant-scoped so that cross-tenant reads never see them even
// when queried outside a vendor join.
type GSTINRegistration struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	VendorID  uuid.UUID `gorm:"type:uuid;not null;index"`
	GSTIN     string    `gorm:"type:varchar(15);not null;index"`
	StateCode string    `gorm:"type:varchar(2);not null"`
	Address   string    `gorm:"type:text"`
	IsPrimary bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GSTINRegistration) TableName() string {
	return "vendor_gstin_registrations"
}

// ToDomain converts the persistence model to the domain aggregate
func (m *Vendor) ToDomain() *vendor.Vendor {
	registrations := make([]vendor.GSTINRegistration, len(m.Registrations))
	for i, r := range m.Registrations {
		registrations[i] = vendor.GSTINRegistration{
			ID:        r.ID,
			GSTIN:     r.GSTIN,
			StateCode: r.StateCode,
			Address:   r.Address,
			IsPrimary: r.IsPrimary,
			CreatedAt: r.CreatedAt,
		}
	}

	v := &vendor.Vendor{
		Code:          m.Code,
		LegalName:     m.LegalName,
		TradeName:     m.TradeName,
		PAN:           m.PAN,
		Status:        vendor.VendorStatus(m.Status),
		ContactName:   m.ContactName,
		ContactEmail:  m.ContactEmail,
		ContactPhone:  m.ContactPhone,
		Registrations: registrations,
	}
	m.PopulateTenantAggregateRoot(&v.TenantAggregateRoot)
	return v
}

// VendorFromDomain converts the domain aggregate to a persistence model
func VendorFromDomain(v *vendor.Vendor) *Vendor {
	registrations := make([]GSTINRegistration, len(v.Registrations))
	for i, r := range v.Registrations {
		registrations[i] = GSTINRegistration{
			ID:        r.ID,
			TenantID:  v.TenantID,
			VendorID:  v.ID,
			GSTIN:     r.GSTIN,
			StateCode: r.StateCode,
			Address:   r.Address,
			IsPrimary: r.IsPrimary,
			CreatedAt: r.CreatedAt,
		}
	}

	m := &Vendor{
		Code:          v.Code,
		LegalName:     v.LegalName,
		TradeName:     v.TradeName,
		PAN:           v.PAN,
		Status:        string(v.Status),
		ContactName:   v.ContactName,
		ContactEmail:  v.ContactEmail,
		ContactPhone:  v.ContactPhone,
		Registrations: registrations,
	}
	m.FromDomainTenantAggregateRoot(v.TenantAggregateRoot)
	return m
}
