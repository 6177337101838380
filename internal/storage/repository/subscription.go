package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/99sellers/leadgen/internal/models"
)

const subscriptionColumns = `id, user_uid, plan, status, billing_cycle, start_date, end_date,
	trial_start, trial_end, auto_renew, provider_id, cancel_reason, created_at`

// CreateSubscriptionRecord вставляет новую запись подписки и возвращает её ID.
func (s *Storage) CreateSubscriptionRecord(ctx context.Context, rec models.SubscriptionRecord) (int, error) {
	const op = "storage.CreateSubscriptionRecord"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_uid, plan, status, billing_cycle, start_date,
			      end_date, trial_start, trial_end, auto_renew, provider_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		rec.UserUID, rec.Plan, rec.Status, rec.BillingCycle, rec.StartDate,
		rec.EndDate, rec.TrialStart, rec.TrialEnd, rec.AutoRenew, rec.ProviderID).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetSubscriptionRecord возвращает запись подписки по её ID.
func (s *Storage) GetSubscriptionRecord(ctx context.Context, id int) (*models.SubscriptionRecord, error) {
	const op = "storage.GetSubscriptionRecord"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	return s.scanSubscriptionRecord(s.DB.QueryRowContext(ctx, query, id), op)
}

// GetActiveSubscriptionByUser возвращает последнюю действующую подписку
// пользователя. Отсутствие записи означает тариф free.
func (s *Storage) GetActiveSubscriptionByUser(ctx context.Context, userUID string) (*models.SubscriptionRecord, error) {
	const op = "storage.GetActiveSubscriptionByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1
			    AND status IN ('active', 'trialing')
			  ORDER BY created_at DESC
			  LIMIT 1`
	return s.scanSubscriptionRecord(s.DB.QueryRowContext(ctx, query, userUID), op)
}

func (s *Storage) scanSubscriptionRecord(row *sql.Row, op string) (*models.SubscriptionRecord, error) {
	var rec models.SubscriptionRecord
	var providerID, cancelReason sql.NullString
	err := row.Scan(&rec.ID, &rec.UserUID, &rec.Plan, &rec.Status, &rec.BillingCycle,
		&rec.StartDate, &rec.EndDate, &rec.TrialStart, &rec.TrialEnd,
		&rec.AutoRenew, &providerID, &cancelReason, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rec.ProviderID = providerID.String
	rec.CancelReason = cancelReason.String
	return &rec, nil
}

// UpdateSubscriptionStatus переводит подписку в новый статус и сохраняет
// причину отмены, возвращает количество изменённых строк.
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, id int, status models.SubscriptionStatus, cancelReason string) (int, error) {
	const op = "storage.UpdateSubscriptionStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = $2,
			      cancel_reason = NULLIF($3, ''),
			      auto_renew = CASE WHEN $2 = 'cancelled' THEN FALSE ELSE auto_renew END
			  WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id, status, cancelReason)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// UpdateSubscriptionRecord обновляет изменяемые поля записи подписки
// и возвращает количество изменённых строк.
func (s *Storage) UpdateSubscriptionRecord(ctx context.Context, rec models.SubscriptionRecord) (int, error) {
	const op = "storage.UpdateSubscriptionRecord"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET plan = $2, status = $3, billing_cycle = $4, start_date = $5,
			      end_date = $6, trial_start = $7, trial_end = $8, auto_renew = $9
			  WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query,
		rec.ID, rec.Plan, rec.Status, rec.BillingCycle, rec.StartDate,
		rec.EndDate, rec.TrialStart, rec.TrialEnd, rec.AutoRenew)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveSubscriptionRecord удаляет запись подписки по её ID.
func (s *Storage) RemoveSubscriptionRecord(ctx context.Context, id int) (int, error) {
	const op = "storage.RemoveSubscriptionRecord"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListSubscriptionRecords возвращает записи подписок с пагинацией.
func (s *Storage) ListSubscriptionRecords(ctx context.Context, limit, offset int) ([]*models.SubscriptionRecord, error) {
	const op = "storage.ListSubscriptionRecords"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.SubscriptionRecord
	for rows.Next() {
		var rec models.SubscriptionRecord
		var providerID, cancelReason sql.NullString
		if err := rows.Scan(&rec.ID, &rec.UserUID, &rec.Plan, &rec.Status, &rec.BillingCycle,
			&rec.StartDate, &rec.EndDate, &rec.TrialStart, &rec.TrialEnd,
			&rec.AutoRenew, &providerID, &cancelReason, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rec.ProviderID = providerID.String
		rec.CancelReason = cancelReason.String
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountSubscriptionsByStatus возвращает количество подписок в каждом статусе.
func (s *Storage) CountSubscriptionsByStatus(ctx context.Context) (map[models.SubscriptionStatus]int, error) {
	const op = "storage.CountSubscriptionsByStatus"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM subscriptions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := make(map[models.SubscriptionStatus]int)
	for rows.Next() {
		var status models.SubscriptionStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ExpireLapsedSubscriptions переводит подписки с истёкшим периодом в статус
// expired, возвращает количество затронутых строк.
func (s *Storage) ExpireLapsedSubscriptions(ctx context.Context) (int, error) {
	const op = "storage.ExpireLapsedSubscriptions"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = 'expired'
			  WHERE status IN ('active', 'trialing')
			    AND COALESCE(end_date, trial_end) < NOW()`
	result, err := s.DB.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
