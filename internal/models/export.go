package models

// ExportFormat — формат файла экспорта лидов.
type ExportFormat string

// Поддерживаемые форматы экспорта.
//
// FormatExcel намеренно отдаёт CSV-тело с BOM под именем *.xlsx.csv:
// отдельного бинарного формата таблиц нет, получатели исторически
// принимают именно такой поток.
const (
	FormatCSV   ExportFormat = "csv"
	FormatJSON  ExportFormat = "json"
	FormatExcel ExportFormat = "excel"
)

// ExportHistoryEntry — запись локальной истории экспортов.
// Идентификатором служит отметка времени создания; хранится не более
// десяти последних записей, старые вытесняются первыми.
type ExportHistoryEntry struct {
	ID      int64        `json:"id"`
	Name    string       `json:"name"`
	Format  ExportFormat `json:"format"`
	Records int          `json:"records"`
	Date    string       `json:"date"`
	Size    string       `json:"size"`
	Status  string       `json:"status"`
}
