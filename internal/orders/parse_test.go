package orders

import (
	"strings"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/orderlens/api/schemas"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"RupeeWithGrouping", "Total paid ₹1,234.50", 1234.50, true},
		{"RupeeSpaced", "₹ 99", 99, true},
		{"RsPrefix", "Rs. 450.75 paid", 450.75, true},
		{"RsNoDot", "Rs 12,00,000", 1200000, true},
		{"FirstMatchWins", "₹10 then ₹20", 10, true},
		{"NoCurrency", "1,234.50", 0, false},
		{"Empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"Abbreviated", "Ordered on 15 Mar 2024", "2024-03-15", true},
		{"FullMonthName", "2 September 2023", "2023-09-02", true},
		{"CaseInsensitive", "7 DEC 2022", "2022-12-07", true},
		{"CommaAfterMonth", "1 Jan, 2025 at 8:30 PM", "2025-01-01", true},
		{"ImpossibleDay", "31 Feb 2024", "", false},
		{"NumericOnly", "2024-03-15", "", false},
		{"NoDate", "Pizza Place", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRestaurantName(t *testing.T) {
	assert.Equal(t, "Pizza Place", RestaurantName("\n   \n  Pizza Place  \n15 Mar 2024"))
	assert.Equal(t, schemas.UnknownRestaurant, RestaurantName(" \n\t\n"))
	assert.Equal(t, schemas.UnknownRestaurant, RestaurantName(""))
}

func TestParseOrderText(t *testing.T) {
	order, ok := ParseOrderText("Dosa Corner\nDelivered\n2 Apr 2024\n₹1,234.50")
	require.True(t, ok)
	assert.Equal(t, schemas.Order{Date: "2024-04-02", Amount: 1234.50, RestaurantName: "Dosa Corner"}, order)

	_, ok = ParseOrderText("Dosa Corner\n₹450")
	assert.False(t, ok, "date missing")
	_, ok = ParseOrderText("Dosa Corner\n2 Apr 2024")
	assert.False(t, ok, "amount missing")
}

func TestParseAll(t *testing.T) {
	texts := []string{
		"Pizza Place\n15 Mar 2024\n₹450",
		"Header without order details",
		"Dosa Corner\n2 Apr 2024\n₹1,234.50",
	}
	got, dropped := ParseAll(texts)
	want := []schemas.Order{
		{Date: "2024-03-15", Amount: 450, RestaurantName: "Pizza Place"},
		{Date: "2024-04-02", Amount: 1234.50, RestaurantName: "Dosa Corner"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseAll mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, dropped)

	empty, dropped := ParseAll(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
	assert.Zero(t, dropped)
}

func FuzzParseOrderText(f *testing.F) {
	f.Add([]byte("Pizza Place\n15 Mar 2024\n₹450"))
	f.Add([]byte("Rs. 1,00,000.99 on 29 Feb 2024"))
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		name, err := consumer.GetString()
		if err != nil {
			return
		}
		body, err := consumer.GetString()
		if err != nil {
			return
		}
		text := name + "\n" + body

		order, ok := ParseOrderText(text)
		if !ok {
			return
		}
		if order.Amount < 0 {
			t.Errorf("negative amount %v from %q", order.Amount, text)
		}
		if len(order.Date) != len(DateLayout) {
			t.Errorf("malformed date %q from %q", order.Date, text)
		}
		if order.RestaurantName == "" || strings.TrimSpace(order.RestaurantName) != order.RestaurantName {
			t.Errorf("untrimmed restaurant name %q", order.RestaurantName)
		}
	})
}
