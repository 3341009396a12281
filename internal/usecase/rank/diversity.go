package rank

import (
	"strings"

	"github.com/drivelane/carsearch/internal/domain"
)

// DiversityReport summarizes make/model spread in a result list.
type DiversityReport struct {
	TotalResults    int     `json:"totalResults"`
	UniqueMakes     int     `json:"uniqueMakes"`
	UniqueModels    int     `json:"uniqueModels"`
	MaxPerMake      int     `json:"maxPerMake"`
	MaxPerModel     int     `json:"maxPerModel"`
	AvgPerMake      float64 `json:"avgPerMake"`
	AvgPerModel     float64 `json:"avgPerModel"`
}

// EnsureDiversity caps repeated makes and models with a single greedy pass
// over results already sorted by score descending. Relative order among
// admitted candidates is preserved; the pass stops at maxResults.
func EnsureDiversity(results []domain.VehicleResult, maxPerMake, maxPerModel, maxResults int) []domain.VehicleResult {
	if maxResults <= 0 || len(results) == 0 {
		return nil
	}

	perMake := make(map[string]int)
	perModel := make(map[string]int)
	admitted := make([]domain.VehicleResult, 0, maxResults)

	for _, r := range results {
		makeKey := strings.ToLower(r.Vehicle().Make)
		modelKey := makeKey + "|" + strings.ToLower(r.Vehicle().Model)
		if perMake[makeKey] >= maxPerMake || perModel[modelKey] >= maxPerModel {
			continue
		}
		perMake[makeKey]++
		perModel[modelKey]++
		admitted = append(admitted, r)
		if len(admitted) == maxResults {
			break
		}
	}
	return admitted
}

// AnalyzeDiversity reports the make/model distribution of a result list.
// Read-only diagnostic; the input is not modified.
func AnalyzeDiversity(results []domain.VehicleResult) DiversityReport {
	report := DiversityReport{TotalResults: len(results)}
	if len(results) == 0 {
		return report
	}

	perMake := make(map[string]int)
	perModel := make(map[string]int)
	for _, r := range results {
		makeKey := strings.ToLower(r.Vehicle().Make)
		modelKey := makeKey + "|" + strings.ToLower(r.Vehicle().Model)
		perMake[makeKey]++
		perModel[modelKey]++
	}

	report.UniqueMakes = len(perMake)
	report.UniqueModels = len(perModel)
	for _, n := range perMake {
		if n > report.MaxPerMake {
			report.MaxPerMake = n
		}
	}
	for _, n := range perModel {
		if n > report.MaxPerModel {
			report.MaxPerModel = n
		}
	}
	report.AvgPerMake = float64(len(results)) / float64(len(perMake))
	report.AvgPerModel = float64(len(results)) / float64(len(perModel))
	return report
}
