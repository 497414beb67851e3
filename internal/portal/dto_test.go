package portal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumber_Unmarshal(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		valid bool
	}{
		{in: `2`, want: 2, valid: true},
		{in: `9.99`, want: 9.99, valid: true},
		{in: `"9.99"`, want: 9.99, valid: true},
		{in: `" 3 "`, want: 3, valid: true},
		{in: `""`, valid: false},
		{in: `null`, valid: false},
		{in: `"abc"`, valid: false},
		{in: `true`, valid: false},
		{in: `{"x":1}`, valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var holder struct {
				N Number `json:"n"`
			}
			require.NoError(t, json.Unmarshal([]byte(`{"n":`+tt.in+`}`), &holder))
			require.Equal(t, tt.valid, holder.N.Valid)
			if tt.valid {
				require.InDelta(t, tt.want, holder.N.Value, 1e-9)
			}
		})
	}
}

func TestNumber_MissingFieldIsAbsent(t *testing.T) {
	var line RawLine
	require.NoError(t, json.Unmarshal([]byte(`{"name":"P1"}`), &line))
	require.False(t, line.Price.Valid)
	require.Equal(t, 7.5, line.Price.Or(7.5))
}

func TestNumber_Marshal(t *testing.T) {
	data, err := json.Marshal(struct {
		A Number `json:"a"`
		B Number `json:"b"`
	}{A: Num(1.5)})
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1.5,"b":null}`, string(data))
}

func TestAccountData_TolerantDecode(t *testing.T) {
	body := `{
		"quotes": [{"name": "Q1", "lines": [{"name": "P1", "qty": "2", "price": "9.99"}]}],
		"total_quotes": "1",
		"page_size": null
	}`
	var data AccountData
	require.NoError(t, json.Unmarshal([]byte(body), &data))
	require.Len(t, data.Quotes, 1)
	require.Equal(t, 2.0, data.Quotes[0].Lines[0].Qty.Value)
	require.True(t, data.TotalQuotes.Valid)
	require.False(t, data.PageSize.Valid)
	require.False(t, data.TotalOrders.Valid)
}

func TestRawUser_Normalize(t *testing.T) {
	tests := []struct {
		name string
		body string
		want User
	}{
		{
			name: "canonical fields",
			body: `{"id": 7, "email": "a@b.com", "first_name": "Ada", "last_name": "Lovelace"}`,
			want: User{ID: "7", Email: "a@b.com", FirstName: "Ada", LastName: "Lovelace", Name: "Ada Lovelace"},
		},
		{
			name: "alternate spellings",
			body: `{"sub": "u-1", "username": "ada@b.com", "fname": "Ada"}`,
			want: User{ID: "u-1", Email: "ada@b.com", FirstName: "Ada", Name: "Ada"},
		},
		{
			name: "user_id and email local part",
			body: `{"user_id": 12, "email": "grace@navy.mil"}`,
			want: User{ID: "12", Email: "grace@navy.mil", Name: "grace"},
		},
		{
			name: "explicit name wins",
			body: `{"id": "x", "email": "a@b.com", "first_name": "A", "last_name": "B", "name": "Boss"}`,
			want: User{ID: "x", Email: "a@b.com", FirstName: "A", LastName: "B", Name: "Boss"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw rawUser
			require.NoError(t, json.Unmarshal([]byte(tt.body), &raw))
			require.Equal(t, tt.want, raw.normalize())
		})
	}
}

func TestSite_DisplayLabel(t *testing.T) {
	require.Equal(t, "Main", Site{Label: "Main", Slug: "SITE-A"}.DisplayLabel())
	require.Equal(t, "SITE-A", Site{Label: "  ", Slug: "SITE-A"}.DisplayLabel())
}
