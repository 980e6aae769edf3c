package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMonthsClampsDay(t *testing.T) {
	cases := []struct {
		from string
		n    int
		want string
	}{
		{"2024-01-10", 1, "2024-02-10"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-03-31", 1, "2024-04-30"},
		{"2024-12-15", 1, "2025-01-15"},
		{"2024-05-31", -3, "2024-02-29"},
	}
	for _, tc := range cases {
		got := MustParseDate(tc.from).AddMonths(tc.n)
		assert.Equal(t, tc.want, got.String(), "%s + %d months", tc.from, tc.n)
	}
}

func TestDaysUntil(t *testing.T) {
	start := MustParseDate("2024-01-10")
	assert.Equal(t, 31, start.DaysUntil(MustParseDate("2024-02-10")))
	assert.Equal(t, 29, MustParseDate("2024-02-10").DaysUntil(MustParseDate("2024-03-10")))
	assert.Equal(t, -1, start.DaysUntil(MustParseDate("2024-01-09")))
}

func TestMonthBounds(t *testing.T) {
	d := MustParseDate("2024-02-17")
	assert.Equal(t, "2024-02-01", d.StartOfMonth().String())
	assert.Equal(t, "2024-02-29", d.EndOfMonth().String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-06-01 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", d.String())

	// the calendar day in the sender's zone wins
	d, err = ParseDate("2024-06-01T23:30:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", d.String())

	_, err = ParseDate("01/06/2024")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	var body struct {
		Start Date  `json:"start"`
		End   *Date `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2024-01-10","end":null}`), &body))
	assert.Equal(t, "2024-01-10", body.Start.String())
	assert.Nil(t, body.End)

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-01-10","end":null}`, string(out))

	var zero Date
	require.NoError(t, json.Unmarshal([]byte(`""`), &zero))
	assert.True(t, zero.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`20240110`), &zero))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-05", d.String())

	require.NoError(t, d.Scan("2024-03-06 00:00:00+00:00"))
	assert.Equal(t, "2024-03-06", d.String())

	require.NoError(t, d.Scan([]byte("2024-03-07")))
	assert.Equal(t, "2024-03-07", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))

	v, err := MustParseDate("2024-03-05").Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestPaymentCovers(t *testing.T) {
	p := Payment{BillingStartDate: MustParseDate("2024-01-10"), BillingEndDate: MustParseDate("2024-02-10")}
	assert.True(t, p.Covers(MustParseDate("2024-01-10")))
	assert.True(t, p.Covers(MustParseDate("2024-02-09")))
	assert.False(t, p.Covers(MustParseDate("2024-02-10")))
	assert.False(t, p.Covers(MustParseDate("2024-01-09")))
	assert.Equal(t, 31, NewPaymentView(p).Days)
}
