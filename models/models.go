package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Cents is a monetary amount in integer minor units. Request bodies carry it
// as a plain integer; responses render it as a currency string, so stored
// values are never the display string.
type Cents int64

func (c Cents) String() string {
	return fmt.Sprintf("$%.2f", float64(c)/100)
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Cents) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("amount must be an integer number of cents: %w", err)
	}
	*c = Cents(n)
	return nil
}

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		// Tolerate clients that send a full timestamp.
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return Date{}, err
		}
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case time.Time:
		*d = Date{v}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Rental statuses.
const (
	StatusActive  = "active"
	StatusRetired = "retired"
)

type Rental struct {
	ID             string `json:"id" db:"id"`
	User           string `json:"user" db:"user"`
	Street         string `json:"street" db:"street"`
	City           string `json:"city" db:"city"`
	State          string `json:"state" db:"state"`
	Zip            string `json:"zip" db:"zip"`
	Status         string `json:"status" db:"status"`
	ImageURL       string `json:"imageURL" db:"image_url"`
	Mortgage       Cents  `json:"mortgage" db:"mortgage"`
	PMI            Cents  `json:"pmi" db:"pmi"`
	Insurance      Cents  `json:"insurance" db:"insurance"`
	PropertyTax    Cents  `json:"propertyTax" db:"property_tax"`
	HOA            Cents  `json:"hoa" db:"hoa"`
	ManagementFees Cents  `json:"managementFees" db:"management_fees"`
	Misc           Cents  `json:"misc" db:"misc"`
}

// MarshalJSON adds the display name, which is always the street address.
func (r Rental) MarshalJSON() ([]byte, error) {
	type alias Rental
	return json.Marshal(struct {
		Name string `json:"name"`
		alias
	}{Name: r.Street, alias: alias(r)})
}

type Expense struct {
	ID          string `json:"id" db:"id"`
	User        string `json:"user" db:"user"`
	PropID      string `json:"propId" db:"prop_id"`
	PropName    string `json:"propName" db:"prop_name"`
	Category    string `json:"category" db:"category"`
	Amount      Cents  `json:"amount" db:"amount"`
	Vendor      string `json:"vendor" db:"vendor"`
	Description string `json:"description" db:"description"`
	Date        Date   `json:"date" db:"date"`
}
