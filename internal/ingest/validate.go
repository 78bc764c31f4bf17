package ingest

import (
	"database/sql"
	"math"

	"github.com/lox/streamplot/internal/models"
)

const (
	FlagBlankDischarge    = "blank_discharge"
	FlagMissingToken      = "missing_token"
	FlagNegativeDischarge = "negative_discharge"
	FlagNonFinite         = "non_finite_discharge"
)

// ValidateRecord nulls discharge readings that cannot be a real flow and
// returns the flags explaining why.
func ValidateRecord(rec *models.DischargeRecord) []string {
	var flags []string

	if rec.Discharge.Valid {
		v := rec.Discharge.Float64
		if math.IsNaN(v) || math.IsInf(v, 0) {
			rec.Discharge = sql.NullFloat64{}
			flags = append(flags, FlagNonFinite)
		} else if v < 0 {
			rec.Discharge = sql.NullFloat64{}
			flags = append(flags, FlagNegativeDischarge)
		}
	}

	return flags
}
