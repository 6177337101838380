// Package export реализует конвейер выгрузки лидов: проверку прав
// и месячного лимита, водяные знаки с лицензионным идентификатором,
// генерацию CSV/JSON и ограниченную историю экспортов в kv-хранилище.
//
// Конвейер не занимается доставкой файла пользователю: результатом
// является именованный байтовый блоб, скачивание — забота адаптера.
package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/99sellers/leadgen/internal/entitlement"
	"github.com/99sellers/leadgen/internal/kv"
	"github.com/99sellers/leadgen/internal/lib/sl"
	"github.com/99sellers/leadgen/internal/models"
)

// historyCap — максимум хранимых записей истории, старые вытесняются.
const historyCap = 10

// Пользовательские сообщения отказов. Отказ — не ошибка:
// вызывающий код ветвится по Result.Success.
const (
	msgUpgradeRequired = "Exporting leads is available on paid plans. Please upgrade to continue."
	msgLimitReached    = "You have reached the monthly export limit for your plan."
	msgTermsRequired   = "Please accept the export terms of use before downloading."
	msgExportFailed    = "Export failed. Please try again."
)

// termsText — фиксированная строка условий использования, встраиваемая
// в метаданные выгрузки.
const termsText = "Licensed for internal use by the exporting account only. Redistribution or resale is prohibited."

// Exporter — конвейер экспорта. История и флаг принятия условий
// принадлежат только ему: никакой другой компонент эти ключи не пишет.
type Exporter struct {
	store kv.Store
	log   *slog.Logger
	now   func() time.Time
}

// New создаёт Exporter поверх переданного kv-хранилища.
func New(store kv.Store, log *slog.Logger) *Exporter {
	return &Exporter{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// WithClock подменяет источник времени. Нужен тестам детерминизма
// водяных знаков.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

// Request — параметры одной выгрузки.
type Request struct {
	Leads        []models.Lead
	Format       models.ExportFormat
	User         *models.User
	Subscription *models.Subscription
}

// File — именованный байтовый блоб, готовый к скачиванию.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Result — исход выгрузки. При отказе File и Entry пусты,
// Message содержит готовое пользовательское сообщение.
type Result struct {
	Success bool
	Message string
	File    *File
	Entry   *models.ExportHistoryEntry
}

func refuse(msg string) Result {
	return Result{Success: false, Message: msg}
}

// Export выполняет одну выгрузку: проверяет премиум-доступ, лимит
// тарифа и принятие условий, генерирует водяной файл и дописывает
// запись истории. Любая ошибка генерации прерывает выгрузку до записи
// истории — частичных записей не бывает.
func (e *Exporter) Export(ctx context.Context, req Request) Result {
	const op = "export.Export"
	now := e.now()

	if req.User == nil || !entitlement.CanAccessPremium(req.Subscription, now) {
		return refuse(msgUpgradeRequired)
	}

	history := e.History(ctx)
	limit := req.Subscription.Features.ExportLimit
	if limit != -1 && len(history) >= limit {
		return refuse(msgLimitReached)
	}

	if !e.TermsAccepted(ctx) {
		return refuse(msgTermsRequired)
	}

	file, err := e.generate(req, now)
	if err != nil {
		e.log.Error("failed to generate export file", sl.Err(err))
		return refuse(msgExportFailed)
	}

	entry := models.ExportHistoryEntry{
		ID:      now.UnixMilli(),
		Name:    file.Name,
		Format:  req.Format,
		Records: len(req.Leads),
		Date:    now.UTC().Format("2006-01-02"),
		Size:    approxSize(len(file.Data)),
		Status:  "completed",
	}

	history = append([]models.ExportHistoryEntry{entry}, history...)
	if len(history) > historyCap {
		history = history[:historyCap]
	}
	if err := e.store.Set(ctx, kv.KeyExportHistory, history); err != nil {
		e.log.Error("failed to persist export history", sl.Err(err))
		return refuse(msgExportFailed)
	}

	e.log.Info("export completed",
		slog.String("op", op),
		slog.String("file", file.Name),
		slog.Int("records", entry.Records))
	return Result{Success: true, File: file, Entry: &entry}
}

// generate собирает файл выгрузки в запрошенном формате.
func (e *Exporter) generate(req Request, now time.Time) (*File, error) {
	email := req.User.Email
	base := fmt.Sprintf("99sellers-leads-%d", now.UnixMilli())

	switch req.Format {
	case models.FormatCSV:
		return &File{
			Name:        base + ".csv",
			ContentType: "text/csv; charset=utf-8",
			Data:        GenerateCSV(req.Leads, email, now),
		}, nil
	case models.FormatExcel:
		// Тот же CSV-поток с BOM под расширением для Excel,
		// отдельного бинарного формата нет (см. models.FormatExcel).
		return &File{
			Name:        base + ".xlsx.csv",
			ContentType: "text/csv; charset=utf-8",
			Data:        GenerateCSV(req.Leads, email, now),
		}, nil
	case models.FormatJSON:
		data, err := GenerateJSON(req.Leads, email, now)
		if err != nil {
			return nil, err
		}
		return &File{
			Name:        base + ".json",
			ContentType: "application/json",
			Data:        data,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %q", req.Format)
	}
}

// History возвращает сохранённую историю экспортов, новые записи первыми.
// Повреждённая история читается как пустая.
func (e *Exporter) History(ctx context.Context) []models.ExportHistoryEntry {
	var history []models.ExportHistoryEntry
	found, err := e.store.Get(ctx, kv.KeyExportHistory, &history)
	if err != nil {
		e.log.Warn("failed to read export history", sl.Err(err))
		return nil
	}
	if !found {
		return nil
	}
	return history
}

// TermsAccepted сообщает, принимал ли пользователь условия экспорта.
func (e *Exporter) TermsAccepted(ctx context.Context) bool {
	var accepted bool
	found, err := e.store.Get(ctx, kv.KeyTermsAccepted, &accepted)
	if err != nil {
		e.log.Warn("failed to read terms flag", sl.Err(err))
		return false
	}
	return found && accepted
}

// AcceptTerms фиксирует принятие условий; повторный вызов безвреден.
func (e *Exporter) AcceptTerms(ctx context.Context) error {
	return e.store.Set(ctx, kv.KeyTermsAccepted, true)
}

// LicenseID выводит лицензионный идентификатор выгрузки: первые
// 16 символов base64-кодирования email и отметки времени. Встраивается
// в каждый файл для трассируемости утечек.
func LicenseID(email string, ts time.Time) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(email + ts.UTC().Format(time.RFC3339)))
	if len(encoded) > 16 {
		encoded = encoded[:16]
	}
	return encoded
}

// approxSize переводит размер в человекочитаемую строку.
func approxSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
