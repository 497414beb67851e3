package portal

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number is a numeric field the backend sends as a JSON number or a numeric
// string. Null, empty and malformed values decode as absent.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a present Number.
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil //nolint:nilerr // malformed is absent
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*n = Num(v)
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*n = Num(v)
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Or returns the value, or def when absent.
func (n Number) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}

// AccountData is the /account-data payload.
type AccountData struct {
	Orders      []RawOrder `json:"orders,omitempty"`
	Quotes      []RawQuote `json:"quotes,omitempty"`
	TotalOrders Number     `json:"total_orders"`
	TotalQuotes Number     `json:"total_quotes"`
	PageSize    Number     `json:"page_size"`
}

type RawLine struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Qty         Number `json:"qty"`
	Quantity    Number `json:"quantity"`
	Price       Number `json:"price"`
	Status      string `json:"status,omitempty"`
	Tracking    string `json:"tracking,omitempty"`
}

type Shipment struct {
	TrackingLink     string `json:"tracking_link,omitempty"`
	Tracking         string `json:"tracking,omitempty"`
	TrackingLinkHTML string `json:"tracking_link_html,omitempty"`
}

type RawOrder struct {
	Name      string     `json:"name,omitempty"`
	Status    string     `json:"status,omitempty"`
	Total     Number     `json:"total"`
	Lines     []RawLine  `json:"lines,omitempty"`
	Shipments []Shipment `json:"shipments,omitempty"`
}

type RawQuote struct {
	Name   string    `json:"name,omitempty"`
	Status string    `json:"status,omitempty"`
	Total  Number    `json:"total"`
	Lines  []RawLine `json:"lines,omitempty"`
}

// Site is a saved ship-to site of the signed-in user.
type Site struct {
	ID        int    `json:"id" validate:"required,gt=0"`
	UserID    int    `json:"user_id,omitempty"`
	Slug      string `json:"site_slug" validate:"required"`
	Label     string `json:"label,omitempty"`
	Address   string `json:"address,omitempty"`
	IsDefault bool   `json:"is_default"`
	CreatedAt string `json:"created_at,omitempty"`
}

// DisplayLabel is the label, falling back to the slug.
func (s Site) DisplayLabel() string {
	if strings.TrimSpace(s.Label) != "" {
		return s.Label
	}
	return s.Slug
}

// User is the normalised /api/auth/me identity.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Name      string `json:"name"`
}

// rawUser accepts every field spelling the backend has used.
type rawUser struct {
	ID        json.RawMessage `json:"id"`
	UserID    json.RawMessage `json:"user_id"`
	Sub       json.RawMessage `json:"sub"`
	Email     string          `json:"email"`
	Username  string          `json:"username"`
	FirstName string          `json:"first_name"`
	FName     string          `json:"fname"`
	LastName  string          `json:"last_name"`
	LName     string          `json:"lname"`
	Name      string          `json:"name"`
}

func (r rawUser) normalize() User {
	u := User{
		ID:        firstID(r.ID, r.UserID, r.Sub),
		Email:     firstNonEmpty(r.Email, r.Username),
		FirstName: firstNonEmpty(r.FirstName, r.FName),
		LastName:  firstNonEmpty(r.LastName, r.LName),
	}
	switch {
	case strings.TrimSpace(r.Name) != "":
		u.Name = strings.TrimSpace(r.Name)
	case u.FirstName != "" && u.LastName != "":
		u.Name = u.FirstName + " " + u.LastName
	case u.FirstName != "":
		u.Name = u.FirstName
	default:
		u.Name, _, _ = strings.Cut(u.Email, "@")
	}
	return u
}

func firstID(raws ...json.RawMessage) string {
	for _, raw := range raws {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" {
				return s
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
