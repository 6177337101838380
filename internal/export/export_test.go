package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99sellers/leadgen/internal/kv"
	"github.com/99sellers/leadgen/internal/models"
)

var fixedTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func testLeads(n int) []models.Lead {
	leads := make([]models.Lead, 0, n)
	for i := 0; i < n; i++ {
		auction := fixedTime.AddDate(0, 0, 30+i)
		leads = append(leads, models.Lead{
			ID:             i + 1,
			OwnerName:      fmt.Sprintf("Owner %d", i+1),
			Address:        fmt.Sprintf("%d Main Street", 100+i),
			City:           "Dallas",
			State:          "TX",
			Zip:            "75201",
			Phone:          "(214) 555-1234",
			Email:          fmt.Sprintf("owner%d@example.com", i+1),
			PropertyType:   "Single Family",
			AuctionDate:    &auction,
			EstimatedValue: 250000,
			LoanAmount:     180000,
		})
	}
	return leads
}

func premiumSub() *models.Subscription {
	return &models.Subscription{
		Plan:   models.PlanPremium,
		Status: models.StatusActive,
		Features: models.PlanFeatures{
			ExportLimit:    -1,
			FullDataAccess: true,
			ExportEnabled:  true,
		},
	}
}

func newTestExporter(t *testing.T) (*Exporter, *kv.Memory) {
	t.Helper()
	store := kv.NewMemory()
	exp := New(store, testLogger()).WithClock(func() time.Time { return fixedTime })
	require.NoError(t, exp.AcceptTerms(context.Background()))
	return exp, store
}

func TestExport_FreeUserRefused(t *testing.T) {
	exp, _ := newTestExporter(t)

	sub := &models.Subscription{
		Plan:     models.PlanFree,
		Status:   models.StatusActive,
		Features: models.PlanFeatures{FullDataAccess: false},
	}
	res := exp.Export(context.Background(), Request{
		Leads:        testLeads(3),
		Format:       models.FormatCSV,
		User:         &models.User{Email: "free@example.com"},
		Subscription: sub,
	})

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "upgrade")
	assert.Nil(t, res.File)
	assert.Empty(t, exp.History(context.Background()))
}

func TestExport_LimitEnforced(t *testing.T) {
	exp, _ := newTestExporter(t)
	ctx := context.Background()

	sub := premiumSub()
	sub.Features.ExportLimit = 2

	for i := 0; i < 2; i++ {
		res := exp.Export(ctx, Request{
			Leads:        testLeads(1),
			Format:       models.FormatCSV,
			User:         &models.User{Email: "user@x.com"},
			Subscription: sub,
		})
		require.True(t, res.Success, "export %d", i+1)
	}

	res := exp.Export(ctx, Request{
		Leads:        testLeads(1),
		Format:       models.FormatCSV,
		User:         &models.User{Email: "user@x.com"},
		Subscription: sub,
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "limit")
	assert.Len(t, exp.History(ctx), 2)
}

func TestExport_ZeroLimitRefusedOutright(t *testing.T) {
	exp, _ := newTestExporter(t)

	sub := premiumSub()
	sub.Features.ExportLimit = 0

	res := exp.Export(context.Background(), Request{
		Leads:        testLeads(1),
		Format:       models.FormatCSV,
		User:         &models.User{Email: "user@x.com"},
		Subscription: sub,
	})
	assert.False(t, res.Success)
	assert.Empty(t, exp.History(context.Background()))
}

func TestExport_TermsRequiredOnce(t *testing.T) {
	store := kv.NewMemory()
	exp := New(store, testLogger()).WithClock(func() time.Time { return fixedTime })
	ctx := context.Background()

	req := Request{
		Leads:        testLeads(1),
		Format:       models.FormatJSON,
		User:         &models.User{Email: "user@x.com"},
		Subscription: premiumSub(),
	}

	res := exp.Export(ctx, req)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "terms")
	assert.Empty(t, exp.History(ctx))

	require.NoError(t, exp.AcceptTerms(ctx))
	res = exp.Export(ctx, req)
	assert.True(t, res.Success)

	// Повторное принятие условий безвредно.
	require.NoError(t, exp.AcceptTerms(ctx))
	assert.True(t, exp.TermsAccepted(ctx))
}

func TestExport_HistoryCapped(t *testing.T) {
	exp, _ := newTestExporter(t)
	ctx := context.Background()

	var lastID int64
	for i := 0; i < 13; i++ {
		at := fixedTime.Add(time.Duration(i) * time.Minute)
		exp.now = func() time.Time { return at }
		res := exp.Export(ctx, Request{
			Leads:        testLeads(2),
			Format:       models.FormatCSV,
			User:         &models.User{Email: "user@x.com"},
			Subscription: premiumSub(),
		})
		require.True(t, res.Success)
		lastID = res.Entry.ID
	}

	history := exp.History(ctx)
	require.Len(t, history, 10)

	// Новые записи первыми, в обратном хронологическом порядке.
	assert.Equal(t, lastID, history[0].ID)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, history[i-1].ID, history[i].ID)
	}
}

func TestExport_CSVWatermark(t *testing.T) {
	exp, _ := newTestExporter(t)

	res := exp.Export(context.Background(), Request{
		Leads:        testLeads(3),
		Format:       models.FormatCSV,
		User:         &models.User{Email: "user@x.com"},
		Subscription: premiumSub(),
	})
	require.True(t, res.Success)
	require.NotNil(t, res.File)

	data := res.File.Data
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "BOM expected")

	lines := strings.Split(string(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})), "\n")
	assert.Equal(t, "# 99Sellers Export - User: user@x.com - Generated: 2025-06-15T12:00:00Z", lines[0])
	assert.Contains(t, lines[1], "licensed for internal use only")

	wantLicense := base64.StdEncoding.EncodeToString([]byte("user@x.com2025-06-15T12:00:00Z"))[:16]
	assert.Equal(t, "# License ID: "+wantLicense, lines[2])

	assert.Equal(t, "Owner Name,Address,City,State,Zip,Phone,Email,Property Type,Auction Date,Estimated Value,Loan Amount", lines[3])
	assert.Contains(t, lines[4], `"Owner 1"`)
	assert.Contains(t, lines[len(lines)-2], "# End of export - 3 records - user@x.com")

	assert.Equal(t, "99sellers-leads-"+fmt.Sprint(fixedTime.UnixMilli())+".csv", res.File.Name)
}

func TestExport_ExcelReusesCSVBody(t *testing.T) {
	exp, _ := newTestExporter(t)

	res := exp.Export(context.Background(), Request{
		Leads:        testLeads(2),
		Format:       models.FormatExcel,
		User:         &models.User{Email: "user@x.com"},
		Subscription: premiumSub(),
	})
	require.True(t, res.Success)

	assert.Equal(t, GenerateCSV(testLeads(2), "user@x.com", fixedTime), res.File.Data)
	assert.True(t, strings.HasSuffix(res.File.Name, ".xlsx.csv"))
}

func TestExport_JSONEnvelope(t *testing.T) {
	exp, _ := newTestExporter(t)

	res := exp.Export(context.Background(), Request{
		Leads:        testLeads(2),
		Format:       models.FormatJSON,
		User:         &models.User{Email: "user@x.com"},
		Subscription: premiumSub(),
	})
	require.True(t, res.Success)

	var envelope struct {
		Metadata struct {
			ExportedBy  string `json:"exportedBy"`
			ExportedAt  string `json:"exportedAt"`
			LicenseID   string `json:"licenseId"`
			RecordCount int    `json:"recordCount"`
			Terms       string `json:"terms"`
		} `json:"metadata"`
		Leads []models.Lead `json:"leads"`
	}
	require.NoError(t, json.Unmarshal(res.File.Data, &envelope))

	assert.Equal(t, "user@x.com", envelope.Metadata.ExportedBy)
	assert.Equal(t, "2025-06-15T12:00:00Z", envelope.Metadata.ExportedAt)
	assert.Equal(t, LicenseID("user@x.com", fixedTime), envelope.Metadata.LicenseID)
	assert.Equal(t, 2, envelope.Metadata.RecordCount)
	assert.NotEmpty(t, envelope.Metadata.Terms)
	assert.Len(t, envelope.Leads, 2)
}

// Одинаковые входы дают побайтово одинаковые выгрузки.
func TestGenerate_Deterministic(t *testing.T) {
	leads := testLeads(5)

	csv1 := GenerateCSV(leads, "user@x.com", fixedTime)
	csv2 := GenerateCSV(leads, "user@x.com", fixedTime)
	assert.Equal(t, csv1, csv2)

	json1, err := GenerateJSON(leads, "user@x.com", fixedTime)
	require.NoError(t, err)
	json2, err := GenerateJSON(leads, "user@x.com", fixedTime)
	require.NoError(t, err)
	assert.Equal(t, json1, json2)
}

func TestLicenseID(t *testing.T) {
	id := LicenseID("user@x.com", fixedTime)
	assert.Len(t, id, 16)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("user@x.com2025-06-15T12:00:00Z"))[:16], id)

	// Разные входы дают разные идентификаторы.
	assert.NotEqual(t, id, LicenseID("other@x.com", fixedTime))
	assert.NotEqual(t, id, LicenseID("user@x.com", fixedTime.Add(time.Second)))
}

func TestExport_FieldQuoting(t *testing.T) {
	leads := []models.Lead{{
		OwnerName: `John "JJ" Doe`,
		Address:   "123 Main St, Apt 4",
		City:      "Dallas",
		State:     "TX",
	}}

	data := GenerateCSV(leads, "user@x.com", fixedTime)
	assert.Contains(t, string(data), `"John ""JJ"" Doe"`)
	assert.Contains(t, string(data), `"123 Main St, Apt 4"`)
}
