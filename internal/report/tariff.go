package report

import (
	"github.com/shopspring/decimal"
)

// TariffTable holds the rates valid from EffectiveFrom onwards.
type TariffTable struct {
	EffectiveFrom            string          `json:"effective_from"`
	OwnVehicleRate           decimal.Decimal `json:"own_vehicle_rate"`
	OwnVehicleSubsidizedRate decimal.Decimal `json:"own_vehicle_subsidized_rate"`
	MealAllowances           []TariffRow     `json:"meal_allowances"`
	WorkAllowances           []TariffRow     `json:"work_allowances"`
}

// TariffRow applies when a work duration lies within [From, To], both inclusive HH:MM bounds.
type TariffRow struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}
