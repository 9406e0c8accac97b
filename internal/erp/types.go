// Package erp provides typed wrappers over the ops backend's REST resources.
//
// FILES:
//   - types.go:       envelope, list plumbing, resource models
//   - procurement.go: purchase orders
//   - returns.go:     sales returns
//   - profile.go:     current-user profile
//
// Business logic lives in the backend; these wrappers only shape requests and
// responses.
package erp

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// APIResponse is the standard backend envelope.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// ListResult is a paginated collection.
type ListResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
}

// ListParams are the common list-endpoint query parameters.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	Status   string
}

// query renders params as a query string, empty when nothing is set.
func (p ListParams) query() string {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// PurchaseOrder is a procurement purchase order row.
type PurchaseOrder struct {
	ID          string    `json:"id"`
	Number      string    `json:"number"`
	VendorName  string    `json:"vendor_name"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"total_amount"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

// SalesReturn is a sales return row.
type SalesReturn struct {
	ID          string    `json:"id"`
	OrderNumber string    `json:"order_number"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile is the authenticated user's identity as the backend sees it.
type Profile struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	TenantID        string `json:"tenant_id"`
	TenantSubdomain string `json:"tenant_subdomain"`
}

// envelopeErr turns a failed envelope into an error.
func envelopeErr(message string) error {
	if message == "" {
		message = "request rejected"
	}
	return fmt.Errorf("api error: %s", message)
}
