package orders

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/orderlens/api/schemas"
)

var sample = []schemas.Order{
	{Date: "2024-03-15", Amount: 450, RestaurantName: "Pizza Place"},
	{Date: "2024-01-31", Amount: 100.10, RestaurantName: "Chai Point"},
	{Date: "2024-03-01", Amount: 250.25, RestaurantName: "Dosa Corner"},
	{Date: "2024-04-02", Amount: 1234.50, RestaurantName: "Dosa Corner"},
	{Date: "not-a-date", Amount: 5, RestaurantName: "Broken"},
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, schemas.Summary{}, Summarize(nil))

	s := Summarize(sample[:4])
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2034.85, s.Total, 1e-9)
	assert.InDelta(t, 508.71, s.Average, 1e-9)
}

func TestMonthly(t *testing.T) {
	got := Monthly(sample)
	want := []schemas.MonthlyBucket{
		{Month: "2024-01", Summary: schemas.Summary{Total: 100.10, Count: 1, Average: 100.10}},
		{Month: "2024-03", Summary: schemas.Summary{Total: 700.25, Count: 2, Average: 350.13}},
		{Month: "2024-04", Summary: schemas.Summary{Total: 1234.50, Count: 1, Average: 1234.50}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Monthly mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, Monthly(nil))
}

func TestInRange(t *testing.T) {
	t.Run("InclusiveBounds", func(t *testing.T) {
		got, err := InRange(sample, "2024-01-31", "2024-03-15")
		require.NoError(t, err)
		assert.Len(t, got.Orders, 3)
		assert.Equal(t, 3, got.Count)
		assert.InDelta(t, 800.35, got.Total, 1e-9)
		assert.Equal(t, "2024-01-31", got.StartDate)
	})

	t.Run("EmptyWindow", func(t *testing.T) {
		got, err := InRange(sample, "2023-01-01", "2023-12-31")
		require.NoError(t, err)
		assert.NotNil(t, got.Orders)
		assert.Empty(t, got.Orders)
		assert.Zero(t, got.Average)
	})

	t.Run("InvalidDates", func(t *testing.T) {
		_, err := InRange(sample, "15/03/2024", "2024-04-01")
		assert.ErrorContains(t, err, "invalid start date")
		_, err = InRange(sample, "2024-03-01", "")
		assert.ErrorContains(t, err, "invalid end date")
		_, err = InRange(sample, "2024-04-01", "2024-03-01")
		assert.ErrorContains(t, err, "before start date")
	})
}
