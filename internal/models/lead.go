package models

import "time"

// Lead — запись лида для выдачи и экспорта: владелец проблемного
// объекта недвижимости вместе с контактами и параметрами залога.
// Порядок полей фиксирует порядок колонок в CSV-экспорте.
type Lead struct {
	ID             int        `json:"id"`
	OwnerName      string     `json:"ownerName"`
	Address        string     `json:"address"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	Zip            string     `json:"zip"`
	Phone          string     `json:"phone"`
	Email          string     `json:"email"`
	PropertyType   string     `json:"propertyType"`
	AuctionDate    *time.Time `json:"auctionDate,omitempty"`
	EstimatedValue float64    `json:"estimatedValue"`
	LoanAmount     float64    `json:"loanAmount"`
}

// Property представляет объект недвижимости в админской CRUD-поверхности.
type Property struct {
	ID             int       `json:"id"`
	Address        string    `json:"address"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	Zip            string    `json:"zip"`
	PropertyType   string    `json:"property_type"`
	Bedrooms       int       `json:"bedrooms"`
	Bathrooms      float64   `json:"bathrooms"`
	SquareFeet     int       `json:"square_feet"`
	EstimatedValue float64   `json:"estimated_value"`
	OwnerID        *int      `json:"owner_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Auction представляет запись о предстоящих торгах по объекту.
type Auction struct {
	ID           int        `json:"id"`
	PropertyID   int        `json:"property_id"`
	AuctionDate  *time.Time `json:"auction_date,omitempty"`
	OpeningBid   float64    `json:"opening_bid"`
	Trustee      string     `json:"trustee"`
	CaseNumber   string     `json:"case_number"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Owner представляет собственника объекта недвижимости.
type Owner struct {
	ID        int       `json:"id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Mailing   string    `json:"mailing_address"`
	CreatedAt time.Time `json:"created_at"`
}

// Loan представляет залоговое обязательство по объекту.
type Loan struct {
	ID           int        `json:"id"`
	PropertyID   int        `json:"property_id"`
	Lender       string     `json:"lender"`
	Amount       float64    `json:"amount"`
	InterestRate float64    `json:"interest_rate"`
	DefaultDate  *time.Time `json:"default_date,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}
