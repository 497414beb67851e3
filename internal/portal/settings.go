package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zjrosen/portal/internal/log"
)

// maxSettingLen is the longest value the backend stores for a text setting.
const maxSettingLen = 255

// Settings is the signed-in user's profile as served by /api/settings.
type Settings struct {
	FirstName     string      `json:"first_name" validate:"max=255"`
	LastName      string      `json:"last_name" validate:"max=255"`
	JobTitle      string      `json:"job_title" validate:"max=255"`
	AmazonSite    string      `json:"amazon_site" validate:"max=255"`
	OtherAccounts AccountList `json:"other_accounts" validate:"dive,required,max=255"`
}

// Normalized trims every text field, truncates it to the stored length and
// drops blank other accounts.
func (s Settings) Normalized() Settings {
	out := Settings{
		FirstName:     cleanSetting(s.FirstName),
		LastName:      cleanSetting(s.LastName),
		JobTitle:      cleanSetting(s.JobTitle),
		AmazonSite:    cleanSetting(s.AmazonSite),
		OtherAccounts: AccountList{},
	}
	for _, a := range s.OtherAccounts {
		if a = cleanSetting(a); a != "" {
			out.OtherAccounts = append(out.OtherAccounts, a)
		}
	}
	return out
}

// AccountList decodes from a JSON array, a comma separated string or null.
// It always encodes as an array.
type AccountList []string

// ParseAccountList splits a comma separated list, keeping non-blank items.
func ParseAccountList(s string) AccountList {
	out := AccountList{}
	for _, part := range strings.Split(s, ",") {
		if part = cleanSetting(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (l *AccountList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*l = AccountList{}
	case string:
		*l = ParseAccountList(v)
	case []any:
		out := AccountList{}
		for _, item := range v {
			s := ""
			switch x := item.(type) {
			case nil:
			case string:
				s = x
			case float64:
				s = strconv.FormatFloat(x, 'f', -1, 64)
			default:
				s = fmt.Sprint(x)
			}
			if s = cleanSetting(s); s != "" {
				out = append(out, s)
			}
		}
		*l = out
	default:
		return fmt.Errorf("other_accounts: unexpected %T", raw)
	}
	return nil
}

func (l AccountList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// cleanSetting trims s and truncates it to maxSettingLen characters.
func cleanSetting(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= maxSettingLen {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:maxSettingLen]))
}

// GetSettings returns the user's saved settings.
func (c *Client) GetSettings(ctx context.Context) (Settings, error) {
	var s Settings
	if err := c.sendJSON(ctx, request{op: "settings", method: "GET", url: c.apiBase + "/api/settings"}, &s); err != nil {
		return Settings{}, err
	}
	if s.OtherAccounts == nil {
		s.OtherAccounts = AccountList{}
	}
	return s, nil
}

// UpdateSettings replaces every settings field with the normalized form of s
// and returns what was sent.
func (c *Client) UpdateSettings(ctx context.Context, s Settings) (Settings, error) {
	s = s.Normalized()
	if err := c.validate.Struct(s); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}

	var resp struct {
		Message string `json:"message"`
	}
	err := c.sendJSON(ctx, request{
		op:     "settings_update",
		method: "PUT",
		url:    c.apiBase + "/api/settings",
		body:   s,
	}, &resp)
	if err != nil {
		return Settings{}, err
	}

	log.Debug(log.CatHTTP, "Settings updated", "message", resp.Message, "other_accounts", len(s.OtherAccounts))
	return s, nil
}

// Shipping is the user's default ship-to address.
type Shipping struct {
	ShipTo   string `json:"shipto" validate:"max=255"`
	Address1 string `json:"address1" validate:"required,max=255"`
	Address2 string `json:"address2" validate:"max=255"`
	City     string `json:"city" validate:"required,max=255"`
	State    string `json:"state" validate:"required,max=255"`
	Zip      string `json:"zip" validate:"required,min=5,max=255"`
	Country  string `json:"country" validate:"required,max=255"`
}

func (s Shipping) normalized() Shipping {
	return Shipping{
		ShipTo:   cleanSetting(s.ShipTo),
		Address1: cleanSetting(s.Address1),
		Address2: cleanSetting(s.Address2),
		City:     cleanSetting(s.City),
		State:    cleanSetting(s.State),
		Zip:      cleanSetting(s.Zip),
		Country:  cleanSetting(s.Country),
	}
}

// Merge fills the fields of s that are blank with the values from other.
func (s Shipping) Merge(other Shipping) Shipping {
	pick := func(a, b string) string {
		if strings.TrimSpace(a) != "" {
			return a
		}
		return b
	}
	return Shipping{
		ShipTo:   pick(s.ShipTo, other.ShipTo),
		Address1: pick(s.Address1, other.Address1),
		Address2: pick(s.Address2, other.Address2),
		City:     pick(s.City, other.City),
		State:    pick(s.State, other.State),
		Zip:      pick(s.Zip, other.Zip),
		Country:  pick(s.Country, other.Country),
	}
}

// GetShipping returns the saved shipping address.
func (c *Client) GetShipping(ctx context.Context) (Shipping, error) {
	var s Shipping
	if err := c.sendJSON(ctx, request{op: "shipping", method: "GET", url: c.apiBase + "/api/settings/shipping"}, &s); err != nil {
		return Shipping{}, err
	}
	return s, nil
}

// UpdateShipping validates and saves the shipping address.
func (c *Client) UpdateShipping(ctx context.Context, s Shipping) (Shipping, error) {
	s = s.normalized()
	if err := c.validate.Struct(s); err != nil {
		return Shipping{}, fmt.Errorf("invalid shipping address: %w", err)
	}
	err := c.sendJSON(ctx, request{
		op:     "shipping_update",
		method: "PUT",
		url:    c.apiBase + "/api/settings/shipping",
		body:   s,
	}, nil)
	if err != nil {
		return Shipping{}, err
	}
	return s, nil
}

// AddressLookup asks the address service for the address on file for an
// account.
type AddressLookup struct {
	AccountName string `json:"account_name" validate:"required"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

// FetchAddress looks up the address for an account. A missing shipto is
// filled with the requester's name.
func (c *Client) FetchAddress(ctx context.Context, lookup AddressLookup) (Shipping, error) {
	if err := c.validate.Struct(lookup); err != nil {
		return Shipping{}, fmt.Errorf("invalid address lookup: %w", err)
	}

	var raw struct {
		Shipping
		Addr1 string `json:"addr1"`
	}
	err := c.sendJSON(ctx, request{
		op:     "fetch_address",
		method: "POST",
		url:    c.apiBase + "/api/fetch-address",
		body:   lookup,
	}, &raw)
	if err != nil {
		return Shipping{}, err
	}

	s := raw.Shipping
	if s.Address1 == "" {
		s.Address1 = raw.Addr1
	}
	if strings.TrimSpace(s.ShipTo) == "" {
		s.ShipTo = strings.TrimSpace(lookup.FirstName + " " + lookup.LastName)
	}
	return s.normalized(), nil
}
