// Package services содержит бизнес-логику административной CRUD-поверхности:
// единообразные операции list/create/update/delete/stats над ресурсами
// properties, auctions, owners, loans, users и subscriptions.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/99sellers/leadgen/internal/models"
)

var (
	// ErrUnknownResource возвращается для ресурса вне админской поверхности.
	ErrUnknownResource = errors.New("unknown resource")
	// ErrInvalidID возвращается, когда идентификатор не разбирается для ресурса.
	ErrInvalidID = errors.New("invalid resource id")
)

// Разрешённые ресурсы админской поверхности.
const (
	ResourceProperties    = "properties"
	ResourceAuctions      = "auctions"
	ResourceOwners        = "owners"
	ResourceLoans         = "loans"
	ResourceUsers         = "users"
	ResourceSubscriptions = "subscriptions"
)

// AdminRepository описывает нужные админке операции хранилища.
type AdminRepository interface {
	ListProperties(ctx context.Context, limit, offset int) ([]*models.Property, error)
	CreateProperty(ctx context.Context, p models.Property) (int, error)
	UpdateProperty(ctx context.Context, p models.Property) (int, error)
	RemoveProperty(ctx context.Context, id int) (int, error)
	CountProperties(ctx context.Context) (int, error)

	ListAuctions(ctx context.Context, limit, offset int) ([]*models.Auction, error)
	CreateAuction(ctx context.Context, a models.Auction) (int, error)
	UpdateAuction(ctx context.Context, a models.Auction) (int, error)
	RemoveAuction(ctx context.Context, id int) (int, error)
	CountAuctions(ctx context.Context) (int, error)

	ListOwners(ctx context.Context, limit, offset int) ([]*models.Owner, error)
	CreateOwner(ctx context.Context, o models.Owner) (int, error)
	UpdateOwner(ctx context.Context, o models.Owner) (int, error)
	RemoveOwner(ctx context.Context, id int) (int, error)
	CountOwners(ctx context.Context) (int, error)

	ListLoans(ctx context.Context, limit, offset int) ([]*models.Loan, error)
	CreateLoan(ctx context.Context, l models.Loan) (int, error)
	UpdateLoan(ctx context.Context, l models.Loan) (int, error)
	RemoveLoan(ctx context.Context, id int) (int, error)
	CountLoans(ctx context.Context) (int, error)

	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateUserRole(ctx context.Context, userUID, role string) (int, error)
	RemoveUser(ctx context.Context, userUID string) (int, error)
	CountUsers(ctx context.Context) (int, error)

	ListSubscriptionRecords(ctx context.Context, limit, offset int) ([]*models.SubscriptionRecord, error)
	UpdateSubscriptionRecord(ctx context.Context, rec models.SubscriptionRecord) (int, error)
	RemoveSubscriptionRecord(ctx context.Context, id int) (int, error)
	CountSubscriptionsByStatus(ctx context.Context) (map[models.SubscriptionStatus]int, error)
}

// AdminService предоставляет единый диспетчер операций по имени ресурса.
type AdminService struct {
	repo AdminRepository
	log  *slog.Logger
}

// NewAdminService создаёт AdminService с заданным хранилищем.
func NewAdminService(repo AdminRepository, log *slog.Logger) *AdminService {
	return &AdminService{repo: repo, log: log}
}

// List возвращает страницу записей ресурса.
func (s *AdminService) List(ctx context.Context, resource string, limit, offset int) (any, error) {
	const op = "services.admin.List"

	switch resource {
	case ResourceProperties:
		return s.repo.ListProperties(ctx, limit, offset)
	case ResourceAuctions:
		return s.repo.ListAuctions(ctx, limit, offset)
	case ResourceOwners:
		return s.repo.ListOwners(ctx, limit, offset)
	case ResourceLoans:
		return s.repo.ListLoans(ctx, limit, offset)
	case ResourceUsers:
		return s.repo.ListUsers(ctx, limit, offset)
	case ResourceSubscriptions:
		return s.repo.ListSubscriptionRecords(ctx, limit, offset)
	default:
		return nil, fmt.Errorf("%s: %w: %s", op, ErrUnknownResource, resource)
	}
}

// Create создаёт запись ресурса из JSON-тела и возвращает её идентификатор.
// Пользователи и подписки через Create не создаются: для них есть
// регистрация и оформление подписки.
func (s *AdminService) Create(ctx context.Context, resource string, payload json.RawMessage) (int, error) {
	const op = "services.admin.Create"

	switch resource {
	case ResourceProperties:
		var p models.Property
		if err := json.Unmarshal(payload, &p); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		return s.repo.CreateProperty(ctx, p)
	case ResourceAuctions:
		var a models.Auction
		if err := json.Unmarshal(payload, &a); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		return s.repo.CreateAuction(ctx, a)
	case ResourceOwners:
		var o models.Owner
		if err := json.Unmarshal(payload, &o); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		return s.repo.CreateOwner(ctx, o)
	case ResourceLoans:
		var l models.Loan
		if err := json.Unmarshal(payload, &l); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		return s.repo.CreateLoan(ctx, l)
	default:
		return 0, fmt.Errorf("%s: %w: %s", op, ErrUnknownResource, resource)
	}
}

// Update обновляет запись ресурса по идентификатору из пути.
// Возвращает число затронутых строк.
func (s *AdminService) Update(ctx context.Context, resource, id string, payload json.RawMessage) (int, error) {
	const op = "services.admin.Update"

	switch resource {
	case ResourceProperties:
		numID, err := parseNumericID(id)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		var p models.Property
		if err := json.Unmarshal(payload, &p); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		p.ID = numID
		return s.repo.UpdateProperty(ctx, p)
	case ResourceAuctions:
		numID, err := parseNumericID(id)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		var a models.Auction
		if err := json.Unmarshal(payload, &a); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		a.ID = numID
		return s.repo.UpdateAuction(ctx, a)
	case ResourceOwners:
		numID, err := parseNumericID(id)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		var o models.Owner
		if err := json.Unmarshal(payload, &o); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		o.ID = numID
		return s.repo.UpdateOwner(ctx, o)
	case ResourceLoans:
		numID, err := parseNumericID(id)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		var l models.Loan
		if err := json.Unmarshal(payload, &l); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		l.ID = numID
		return s.repo.UpdateLoan(ctx, l)
	case ResourceUsers:
		// У пользователя админка редактирует только роль.
		var body struct {
			Role string `json:"role"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		return s.repo.UpdateUserRole(ctx, id, body.Role)
	case ResourceSubscriptions:
		numID, err := parseNumericID(id)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		var rec models.SubscriptionRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		rec.ID = numID
		return s.repo.UpdateSubscriptionRecord(ctx, rec)
	default:
		return 0, fmt.Errorf("%s: %w: %s", op, ErrUnknownResource, resource)
	}
}

// Delete удаляет запись ресурса. Возвращает число затронутых строк.
func (s *AdminService) Delete(ctx context.Context, resource, id string) (int, error) {
	const op = "services.admin.Delete"

	switch resource {
	case ResourceUsers:
		return s.repo.RemoveUser(ctx, id)
	case ResourceProperties, ResourceAuctions, ResourceOwners, ResourceLoans, ResourceSubscriptions:
		numID, err := parseNumericID(id)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		switch resource {
		case ResourceProperties:
			return s.repo.RemoveProperty(ctx, numID)
		case ResourceAuctions:
			return s.repo.RemoveAuction(ctx, numID)
		case ResourceOwners:
			return s.repo.RemoveOwner(ctx, numID)
		case ResourceLoans:
			return s.repo.RemoveLoan(ctx, numID)
		default:
			return s.repo.RemoveSubscriptionRecord(ctx, numID)
		}
	default:
		return 0, fmt.Errorf("%s: %w: %s", op, ErrUnknownResource, resource)
	}
}

// Stats возвращает сводку по ресурсу. Для подписок это разбивка по статусам,
// для остальных ресурсов количество записей.
func (s *AdminService) Stats(ctx context.Context, resource string) (map[string]any, error) {
	const op = "services.admin.Stats"

	if resource == ResourceSubscriptions {
		byStatus, err := s.repo.CountSubscriptionsByStatus(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		total := 0
		statuses := make(map[string]int, len(byStatus))
		for status, n := range byStatus {
			statuses[string(status)] = n
			total += n
		}
		return map[string]any{"total": total, "byStatus": statuses}, nil
	}

	var (
		count int
		err   error
	)
	switch resource {
	case ResourceProperties:
		count, err = s.repo.CountProperties(ctx)
	case ResourceAuctions:
		count, err = s.repo.CountAuctions(ctx)
	case ResourceOwners:
		count, err = s.repo.CountOwners(ctx)
	case ResourceLoans:
		count, err = s.repo.CountLoans(ctx)
	case ResourceUsers:
		count, err = s.repo.CountUsers(ctx)
	default:
		return nil, fmt.Errorf("%s: %w: %s", op, ErrUnknownResource, resource)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return map[string]any{"total": count}, nil
}

// KnownResource сообщает, обслуживается ли ресурс админской поверхностью.
func KnownResource(resource string) bool {
	switch resource {
	case ResourceProperties, ResourceAuctions, ResourceOwners, ResourceLoans,
		ResourceUsers, ResourceSubscriptions:
		return true
	}
	return false
}

func parseNumericID(id string) (int, error) {
	numID, err := strconv.Atoi(id)
	if err != nil || numID <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return numID, nil
}
