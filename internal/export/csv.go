package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/99sellers/leadgen/internal/models"
)

// utf8BOM добавляется к итоговому потоку ради корректного открытия
// файла табличными редакторами.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvColumns — фиксированный порядок колонок выгрузки.
var csvColumns = []string{
	"Owner Name", "Address", "City", "State", "Zip",
	"Phone", "Email", "Property Type", "Auction Date",
	"Estimated Value", "Loan Amount",
}

// GenerateCSV собирает CSV-выгрузку с водяными знаками: три
// комментарные строки в шапке (баннер, лицензионное ограничение,
// лицензионный идентификатор), тело с фиксированным порядком колонок
// и строковыми полями в кавычках, завершающий комментарий с числом
// записей. Байты детерминированы для одинаковых (leads, email, ts).
func GenerateCSV(leads []models.Lead, email string, ts time.Time) []byte {
	stamp := ts.UTC().Format(time.RFC3339)

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	fmt.Fprintf(&buf, "# 99Sellers Export - User: %s - Generated: %s\n", email, stamp)
	buf.WriteString("# This data is licensed for internal use only. Redistribution or resale is prohibited.\n")
	fmt.Fprintf(&buf, "# License ID: %s\n", LicenseID(email, ts))

	buf.WriteString(strings.Join(csvColumns, ","))
	buf.WriteByte('\n')

	for _, lead := range leads {
		row := []string{
			quote(lead.OwnerName),
			quote(lead.Address),
			quote(lead.City),
			quote(lead.State),
			quote(lead.Zip),
			quote(lead.Phone),
			quote(lead.Email),
			quote(lead.PropertyType),
			quote(formatDate(lead.AuctionDate)),
			fmt.Sprintf("%.2f", lead.EstimatedValue),
			fmt.Sprintf("%.2f", lead.LoanAmount),
		}
		buf.WriteString(strings.Join(row, ","))
		buf.WriteByte('\n')
	}

	fmt.Fprintf(&buf, "# End of export - %d records - %s\n", len(leads), email)
	return buf.Bytes()
}

// quote оборачивает строковое поле в двойные кавычки,
// экранируя внутренние кавычки удвоением.
func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
