package coinbase

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// TransactionsSummaryOptions filter GET /brokerage/transaction_summary.
// All fields are optional.
type TransactionsSummaryOptions struct {
	StartDate          time.Time
	EndDate            time.Time
	UserNativeCurrency string
	ProductType        ProductType
	ContractExpiryType ContractExpiryType
}

// GetTransactionsSummary fetches the authenticated user's fee tier,
// margin rates and 30-day trading volume.
func (c *Client) GetTransactionsSummary(ctx context.Context, opts TransactionsSummaryOptions) (*TransactionsSummary, error) {
	query := url.Values{}

	if !opts.StartDate.IsZero() {
		query.Set("start_date", opts.StartDate.UTC().Format(time.RFC3339))
	}
	if !opts.EndDate.IsZero() {
		query.Set("end_date", opts.EndDate.UTC().Format(time.RFC3339))
	}
	if opts.UserNativeCurrency != "" {
		query.Set("user_native_currency", opts.UserNativeCurrency)
	}
	if opts.ProductType != "" {
		query.Set("product_type", string(opts.ProductType))
	}
	if opts.ContractExpiryType != "" {
		query.Set("contract_expiry_type", string(opts.ContractExpiryType))
	}

	var resp TransactionsSummary
	if err := c.get(ctx, "/brokerage/transaction_summary", query, &resp); err != nil {
		return nil, fmt.Errorf("get transactions summary: %w", err)
	}

	return &resp, nil
}
