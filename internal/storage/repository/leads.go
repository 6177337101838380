package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/99sellers/leadgen/internal/models"
)

// ListLeads собирает выборку лидов для поиска и экспорта: объект
// недвижимости вместе с собственником, ближайшими торгами и займом.
func (s *Storage) ListLeads(ctx context.Context, limit, offset int) ([]models.Lead, error) {
	const op = "storage.ListLeads"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT p.id,
			      COALESCE(o.full_name, ''),
			      p.address, p.city, p.state, p.zip,
			      COALESCE(o.phone, ''), COALESCE(o.email, ''),
			      p.property_type,
			      a.auction_date,
			      p.estimated_value,
			      COALESCE(l.amount, 0)
			  FROM properties p
			  LEFT JOIN owners o ON o.id = p.owner_id
			  LEFT JOIN LATERAL (
			      SELECT auction_date FROM auctions
			      WHERE property_id = p.id AND status = 'scheduled'
			      ORDER BY auction_date ASC NULLS LAST
			      LIMIT 1
			  ) a ON TRUE
			  LEFT JOIN LATERAL (
			      SELECT amount FROM loans
			      WHERE property_id = p.id AND status = 'default'
			      ORDER BY amount DESC
			      LIMIT 1
			  ) l ON TRUE
			  ORDER BY p.id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var lead models.Lead
		var auctionDate sql.NullTime
		if err := rows.Scan(&lead.ID, &lead.OwnerName, &lead.Address, &lead.City,
			&lead.State, &lead.Zip, &lead.Phone, &lead.Email, &lead.PropertyType,
			&auctionDate, &lead.EstimatedValue, &lead.LoanAmount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if auctionDate.Valid {
			t := auctionDate.Time
			lead.AuctionDate = &t
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return leads, nil
}

// --- properties ---

// CreateProperty вставляет объект недвижимости и возвращает его ID.
func (s *Storage) CreateProperty(ctx context.Context, p models.Property) (int, error) {
	const op = "storage.CreateProperty"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO properties (address, city, state, zip, property_type, bedrooms,
			      bathrooms, square_feet, estimated_value, owner_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		p.Address, p.City, p.State, p.Zip, p.PropertyType, p.Bedrooms,
		p.Bathrooms, p.SquareFeet, p.EstimatedValue, p.OwnerID).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetProperty возвращает объект недвижимости по его ID.
func (s *Storage) GetProperty(ctx context.Context, id int) (*models.Property, error) {
	const op = "storage.GetProperty"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, address, city, state, zip, property_type, bedrooms, bathrooms,
			      square_feet, estimated_value, owner_id, created_at
			  FROM properties WHERE id = $1`
	var p models.Property
	var ownerID sql.NullInt64
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Address, &p.City, &p.State,
		&p.Zip, &p.PropertyType, &p.Bedrooms, &p.Bathrooms, &p.SquareFeet,
		&p.EstimatedValue, &ownerID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ownerID.Valid {
		v := int(ownerID.Int64)
		p.OwnerID = &v
	}
	return &p, nil
}

// UpdateProperty обновляет объект недвижимости, возвращает число изменённых строк.
func (s *Storage) UpdateProperty(ctx context.Context, p models.Property) (int, error) {
	const op = "storage.UpdateProperty"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE properties
			  SET address = $2, city = $3, state = $4, zip = $5, property_type = $6,
			      bedrooms = $7, bathrooms = $8, square_feet = $9, estimated_value = $10,
			      owner_id = $11
			  WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query,
		p.ID, p.Address, p.City, p.State, p.Zip, p.PropertyType,
		p.Bedrooms, p.Bathrooms, p.SquareFeet, p.EstimatedValue, p.OwnerID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(result, op)
}

// RemoveProperty удаляет объект недвижимости по его ID.
func (s *Storage) RemoveProperty(ctx context.Context, id int) (int, error) {
	const op = "storage.RemoveProperty"
	result, err := s.DB.ExecContext(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(result, op)
}

// ListProperties возвращает объекты недвижимости с пагинацией.
func (s *Storage) ListProperties(ctx context.Context, limit, offset int) ([]*models.Property, error) {
	const op = "storage.ListProperties"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, address, city, state, zip, property_type, bedrooms, bathrooms,
			      square_feet, estimated_value, owner_id, created_at
			  FROM properties
			  ORDER BY id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Property
	for rows.Next() {
		var p models.Property
		var ownerID sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Address, &p.City, &p.State, &p.Zip, &p.PropertyType,
			&p.Bedrooms, &p.Bathrooms, &p.SquareFeet, &p.EstimatedValue,
			&ownerID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if ownerID.Valid {
			v := int(ownerID.Int64)
			p.OwnerID = &v
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountProperties возвращает общее число объектов недвижимости.
func (s *Storage) CountProperties(ctx context.Context) (int, error) {
	const op = "storage.CountProperties"
	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM properties`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// --- auctions ---

// CreateAuction вставляет запись о торгах и возвращает её ID.
func (s *Storage) CreateAuction(ctx context.Context, a models.Auction) (int, error) {
	const op = "storage.CreateAuction"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO auctions (property_id, auction_date, opening_bid, trustee, case_number, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		a.PropertyID, a.AuctionDate, a.OpeningBid, a.Trustee, a.CaseNumber, a.Status).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetAuction возвращает запись о торгах по её ID.
func (s *Storage) GetAuction(ctx context.Context, id int) (*models.Auction, error) {
	const op = "storage.GetAuction"
	query := `SELECT id, property_id, auction_date, opening_bid, trustee, case_number, status, created_at
			  FROM auctions WHERE id = $1`
	var a models.Auction
	var auctionDate sql.NullTime
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.PropertyID, &auctionDate,
		&a.OpeningBid, &a.Trustee, &a.CaseNumber, &a.Status, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if auctionDate.Valid {
		t := auctionDate.Time
		a.AuctionDate = &t
	}
	return &a, nil
}

// UpdateAuction обновляет запись о торгах, возвращает число изменённых строк.
func (s *Storage) UpdateAuction(ctx context.Context, a models.Auction) (int, error) {
	const op = "storage.UpdateAuction"
	query := `UPDATE auctions
			  SET property_id = $2, auction_date = $3, opening_bid = $4,
			      trustee = $5, case_number = $6, status = $7
			  WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query,
		a.ID, a.PropertyID, a.AuctionDate, a.OpeningBid, a.Trustee, a.CaseNumber, a.Status)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(result, op)
}

// RemoveAuction удаляет запись о торгах по её ID.
func (s *Storage) RemoveAuction(ctx context.Context, id int) (int, error) {
	const op = "storage.RemoveAuction"
	result, err := s.DB.ExecContext(ctx, `DELETE FROM auctions WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(result, op)
}

// ListAuctions возвращает записи о торгах с пагинацией.
func (s *Storage) ListAuctions(ctx context.Context, limit, offset int) ([]*models.Auction, error) {
	const op = "storage.ListAuctions"
	query := `SELECT id, property_id, auction_date, opening_bid, trustee, case_number, status, created_at
			  FROM auctions
			  ORDER BY auction_date ASC NULLS LAST
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Auction
	for rows.Next() {
		var a models.Auction
		var auctionDate sql.NullTime
		if err := rows.Scan(&a.ID, &a.PropertyID, &auctionDate, &a.OpeningBid,
			&a.Trustee, &a.CaseNumber, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if auctionDate.Valid {
			t := auctionDate.Time
			a.AuctionDate = &t
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountAuctions возвращает общее число записей о торгах.
func (s *Storage) CountAuctions(ctx context.Context) (int, error) {
	const op = "storage.CountAuctions"
	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM auctions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// --- owners ---

// CreateOwner вставляет собственника и возвращает его ID.
func (s *Storage) CreateOwner(ctx context.Context, o models.Owner) (int, error) {
	const op = "storage.CreateOwner"
	query := `INSERT INTO owners (full_name, phone, email, mailing_address)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query, o.FullName, o.Phone, o.Email, o.Mailing).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetOwner возвращает собственника по его ID.
func (s *Storage) GetOwner(ctx context.Context, id int) (*models.Owner, error) {
	const op = "storage.GetOwner"
	query := `SELECT id, full_name, phone, email, mailing_address, created_at
			  FROM owners WHERE id = $1`
	var o models.Owner
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.FullName, &o.Phone,
		&o.Email, &o.Mailing, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &o, nil
}

// UpdateOwner обновляет собственника, возвращает число изменённых строк.
func (s *Storage) UpdateOwner(ctx context.Context, o models.Owner) (int, error) {
	const op = "storage.UpdateOwner"
	query := `UPDATE owners
			  SET full_name = $2, phone = $3, email = $4, mailing_address = $5
			  WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, o.ID, o.FullName, o.Phone, o.Email, o.Mailing)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(result, op)
}

// RemoveOwner удаляет собственника по его ID.
func (s *Storage) RemoveOwner(ctx context.Context, id int) (int, error) {
	const op = "storage.RemoveOwner"
	result, err := s.DB.ExecContext(ctx, `DELETE FROM owners WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(result, op)
}

// ListOwners возвращает собственников с пагинацией.
func (s *Storage) ListOwners(ctx context.Context, limit, offset int) ([]*models.Owner, error) {
	const op = "storage.ListOwners"
	query := `SELECT id, full_name, phone, email, mailing_address, created_at
			  FROM owners
			  ORDER BY id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Owner
	for rows.Next() {
		var o models.Owner
		if err := rows.Scan(&o.ID, &o.FullName, &o.Phone, &o.Email, &o.Mailing, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountOwners возвращает общее число собственников.
func (s *Storage) CountOwners(ctx context.Context) (int, error) {
	const op = "storage.CountOwners"
	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM owners`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// --- loans ---

// CreateLoan вставляет залоговое обязательство и возвращает его ID.
func (s *Storage) CreateLoan(ctx context.Context, l models.Loan) (int, error) {
	const op = "storage.CreateLoan"
	query := `INSERT INTO loans (property_id, lender, amount, interest_rate, default_date, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		l.PropertyID, l.Lender, l.Amount, l.InterestRate, l.DefaultDate, l.Status).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetLoan возвращает залоговое обязательство по его ID.
func (s *Storage) GetLoan(ctx context.Context, id int) (*models.Loan, error) {
	const op = "storage.GetLoan"
	query := `SELECT id, property_id, lender, amount, interest_rate, default_date, status, created_at
			  FROM loans WHERE id = $1`
	var l models.Loan
	var defaultDate sql.NullTime
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&l.ID, &l.PropertyID, &l.Lender,
		&l.Amount, &l.InterestRate, &defaultDate, &l.Status, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if defaultDate.Valid {
		t := defaultDate.Time
		l.DefaultDate = &t
	}
	return &l, nil
}

// UpdateLoan обновляет залоговое обязательство, возвращает число изменённых строк.
func (s *Storage) UpdateLoan(ctx context.Context, l models.Loan) (int, error) {
	const op = "storage.UpdateLoan"
	query := `UPDATE loans
			  SET property_id = $2, lender = $3, amount = $4, interest_rate = $5,
			      default_date = $6, status = $7
			  WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query,
		l.ID, l.PropertyID, l.Lender, l.Amount, l.InterestRate, l.DefaultDate, l.Status)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(result, op)
}

// RemoveLoan удаляет залоговое обязательство по его ID.
func (s *Storage) RemoveLoan(ctx context.Context, id int) (int, error) {
	const op = "storage.RemoveLoan"
	result, err := s.DB.ExecContext(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(result, op)
}

// ListLoans возвращает залоговые обязательства с пагинацией.
func (s *Storage) ListLoans(ctx context.Context, limit, offset int) ([]*models.Loan, error) {
	const op = "storage.ListLoans"
	query := `SELECT id, property_id, lender, amount, interest_rate, default_date, status, created_at
			  FROM loans
			  ORDER BY id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Loan
	for rows.Next() {
		var l models.Loan
		var defaultDate sql.NullTime
		if err := rows.Scan(&l.ID, &l.PropertyID, &l.Lender, &l.Amount, &l.InterestRate,
			&defaultDate, &l.Status, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if defaultDate.Valid {
			t := defaultDate.Time
			l.DefaultDate = &t
		}
		result = append(result, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountLoans возвращает общее число залоговых обязательств.
func (s *Storage) CountLoans(ctx context.Context) (int, error) {
	const op = "storage.CountLoans"
	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

func rowsAffected(result sql.Result, op string) (int, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(affected), nil
}
