package export

import (
	"encoding/json"
	"time"

	"github.com/99sellers/leadgen/internal/models"
)

// jsonEnvelope — конверт JSON-выгрузки: метаданные водяного знака
// плюс массив сырых записей.
type jsonEnvelope struct {
	Metadata jsonMetadata  `json:"metadata"`
	Leads    []models.Lead `json:"leads"`
}

type jsonMetadata struct {
	ExportedBy  string `json:"exportedBy"`
	ExportedAt  string `json:"exportedAt"`
	LicenseID   string `json:"licenseId"`
	RecordCount int    `json:"recordCount"`
	Terms       string `json:"terms"`
}

// GenerateJSON собирает JSON-выгрузку: массив записей оборачивается в
// конверт с метаданными (автор, отметка времени, лицензионный
// идентификатор, число записей, условия использования) и печатается
// с отступами. Байты детерминированы для одинаковых входов.
func GenerateJSON(leads []models.Lead, email string, ts time.Time) ([]byte, error) {
	if leads == nil {
		leads = []models.Lead{}
	}
	envelope := jsonEnvelope{
		Metadata: jsonMetadata{
			ExportedBy:  email,
			ExportedAt:  ts.UTC().Format(time.RFC3339),
			LicenseID:   LicenseID(email, ts),
			RecordCount: len(leads),
			Terms:       termsText,
		},
		Leads: leads,
	}
	return json.MarshalIndent(envelope, "", "  ")
}
