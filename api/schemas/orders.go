// Package schemas defines the wire types shared by the HTTP API and the CLI.
package schemas

// -- Order Records --

// Order is one transaction recovered from the rendered order history.
type Order struct {
	// Date is an ISO calendar date (YYYY-MM-DD), no time component.
	Date           string  `json:"date"`
	Amount         float64 `json:"amount"`
	RestaurantName string  `json:"restaurantName"`
}

// UnknownRestaurant is used when no label could be recovered from an order card.
const UnknownRestaurant = "Unknown"

// -- Workflow Results --

// LoginResult is returned by the login phase.
type LoginResult struct {
	Success       bool     `json:"success"`
	SessionID     string   `json:"sessionId,omitempty"`
	NeedsOTP      bool     `json:"needsOtp"`
	Message       string   `json:"message,omitempty"`
	ErrorCode     string   `json:"errorCode,omitempty"`
	DiagnosticLog []string `json:"diagnosticLog"`
}

// OTPResult is returned by the OTP phase.
type OTPResult struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message,omitempty"`
	ErrorCode     string   `json:"errorCode,omitempty"`
	DiagnosticLog []string `json:"diagnosticLog"`
}

// ExtractResult is returned by the extraction phase. Orders is never nil.
type ExtractResult struct {
	Success       bool     `json:"success"`
	Orders        []Order  `json:"orders"`
	Message       string   `json:"message,omitempty"`
	ErrorCode     string   `json:"errorCode,omitempty"`
	DiagnosticLog []string `json:"diagnosticLog"`
}

// CancelResult is returned by cancellation. Success is always true.
type CancelResult struct {
	Success bool `json:"success"`
}

// -- Aggregation --

// Summary is the total, count and mean of a set of orders.
type Summary struct {
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// MonthlyBucket groups orders by calendar month.
type MonthlyBucket struct {
	// Month is keyed as YYYY-MM.
	Month string `json:"month"`
	Summary
}

// RangeSummary is the summary of orders falling inside an inclusive date range.
type RangeSummary struct {
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	Orders    []Order `json:"orders"`
	Summary
}
