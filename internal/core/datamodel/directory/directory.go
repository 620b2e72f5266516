package directory

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RowKindMeal = "meal"
	RowKindWork = "work"
)

type Tariff struct {
	ID                       int64           `gorm:"primaryKey"`
	EffectiveFrom            time.Time       `gorm:"column:effective_from;type:date;not null;index"`
	OwnVehicleRate           decimal.Decimal `gorm:"column:own_vehicle_rate;type:numeric(10,2);not null"`
	OwnVehicleSubsidizedRate decimal.Decimal `gorm:"column:own_vehicle_subsidized_rate;type:numeric(10,2);not null"`
	Rows                     []TariffRow     `gorm:"foreignKey:TariffID;constraint:OnDelete:CASCADE"`
	CreatedAt                time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Tariff) TableName() string {
	return "tariffs"
}

type TariffRow struct {
	ID         int64           `gorm:"primaryKey"`
	TariffID   int64           `gorm:"column:tariff_id;not null;index"`
	Kind       string          `gorm:"column:kind;not null"`
	Position   int             `gorm:"column:position;not null"`
	LowerBound string          `gorm:"column:lower_bound;not null"`
	UpperBound string          `gorm:"column:upper_bound;not null"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(10,2);not null"`
}

func (TariffRow) TableName() string {
	return "tariff_rows"
}

type MemberQualification struct {
	ID        int64     `gorm:"primaryKey"`
	MemberID  string    `gorm:"column:member_id;not null;index"`
	Code      string    `gorm:"column:code;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (MemberQualification) TableName() string {
	return "member_qualifications"
}
