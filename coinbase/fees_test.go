package coinbase

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestGetTransactionsSummary tests the transaction summary endpoint.
func TestGetTransactionsSummary(t *testing.T) {
	t.Run("decodes response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/brokerage/transaction_summary" {
				t.Errorf("path = %q, want %q", r.URL.Path, "/brokerage/transaction_summary")
			}
			fmt.Fprint(w, `{
				"total_volume": 1000,
				"total_fees": 25,
				"fee_tier": {
					"pricing_tier": "<$10k",
					"usd_from": "0",
					"usd_to": "10,000",
					"taker_fee_rate": "0.0010",
					"maker_fee_rate": "0.0020"
				},
				"margin_rate": {
					"value": "0.05"
				},
				"goods_and_services_tax": {
					"rate": "0.1",
					"type": "INCLUSIVE"
				},
				"advanced_trade_only_volume": 1000,
				"advanced_trade_only_fees": 25,
				"coinbase_pro_volume": 1000,
				"coinbase_pro_fees": 25
			}`)
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		summary, err := c.GetTransactionsSummary(context.Background(), TransactionsSummaryOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if summary.TotalVolume != 1000 {
			t.Errorf("TotalVolume = %v, want 1000", summary.TotalVolume)
		}
		if summary.FeeTier.PricingTier != "<$10k" {
			t.Errorf("PricingTier = %q, want %q", summary.FeeTier.PricingTier, "<$10k")
		}
		if summary.FeeTier.USDTo != "10,000" {
			t.Errorf("USDTo = %q, want %q", summary.FeeTier.USDTo, "10,000")
		}
		if summary.FeeTier.TakerFeeRate.String() != "0.001" {
			t.Errorf("TakerFeeRate = %s, want 0.001", summary.FeeTier.TakerFeeRate)
		}
		if summary.MarginRate == nil {
			t.Fatal("MarginRate should not be nil")
		}
		if summary.GoodsAndServicesTax == nil || summary.GoodsAndServicesTax.Type != GoodsAndServicesTaxInclusive {
			t.Error("goods_and_services_tax type should be INCLUSIVE")
		}
	})

	t.Run("sends filters", func(t *testing.T) {
		// A zoned input must reach the wire as UTC with a Z suffix.
		start := time.Date(2023, 7, 1, 2, 0, 0, 0, time.FixedZone("CET", 3600))
		end := time.Date(2023, 7, 31, 0, 0, 0, 0, time.UTC)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("start_date") != "2023-07-01T01:00:00Z" {
				t.Errorf("start_date = %q, want %q", q.Get("start_date"), "2023-07-01T01:00:00Z")
			}
			if q.Get("end_date") != "2023-07-31T00:00:00Z" {
				t.Errorf("end_date = %q, want %q", q.Get("end_date"), "2023-07-31T00:00:00Z")
			}
			if q.Get("user_native_currency") != "USD" {
				t.Errorf("user_native_currency = %q, want USD", q.Get("user_native_currency"))
			}
			if q.Get("product_type") != "FUTURE" {
				t.Errorf("product_type = %q, want FUTURE", q.Get("product_type"))
			}
			if q.Get("contract_expiry_type") != "EXPIRING" {
				t.Errorf("contract_expiry_type = %q, want EXPIRING", q.Get("contract_expiry_type"))
			}
			fmt.Fprint(w, `{"total_volume": 0, "total_fees": 0, "fee_tier": {}}`)
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		_, err := c.GetTransactionsSummary(context.Background(), TransactionsSummaryOptions{
			StartDate:          start,
			EndDate:            end,
			UserNativeCurrency: "USD",
			ProductType:        ProductTypeFuture,
			ContractExpiryType: ContractExpiryTypeExpiring,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
