package coinbase

import (
	"encoding/json"
	"testing"
	"time"
)

// TestOrderDecode tests decoding a full order with every configuration
// variant and placeholder string fields populated.
func TestOrderDecode(t *testing.T) {
	input := `{
		"order": {
			"order_id": "0000-000000-000000",
			"product_id": "BTC-USD",
			"user_id": "2222-000000-000000",
			"order_configuration": {
				"market_market_ioc": {
					"quote_size": "10.00",
					"base_size": "0.001"
				},
				"limit_limit_gtc": {
					"base_size": "0.001",
					"limit_price": "10000.00",
					"post_only": false
				},
				"limit_limit_gtd": {
					"base_size": "0.001",
					"limit_price": "10000.00",
					"end_time": "2021-05-31T09:59:59Z",
					"post_only": false
				},
				"stop_limit_stop_limit_gtc": {
					"base_size": "0.001",
					"limit_price": "10000.00",
					"stop_price": "20000.00",
					"stop_direction": "UNKNOWN_STOP_DIRECTION"
				},
				"stop_limit_stop_limit_gtd": {
					"base_size": "0.001",
					"limit_price": "10000.00",
					"stop_price": "20000.00",
					"end_time": "2021-05-31T09:59:59Z",
					"stop_direction": "UNKNOWN_STOP_DIRECTION"
				}
			},
			"side": "UNKNOWN_ORDER_SIDE",
			"client_order_id": "11111-000000-000000",
			"status": "OPEN",
			"time_in_force": "UNKNOWN_TIME_IN_FORCE",
			"created_time": "2021-05-31T09:59:59Z",
			"completion_percentage": "50",
			"filled_size": "0.001",
			"average_filled_price": "50",
			"fee": "string",
			"number_of_fills": "2",
			"filled_value": "10000",
			"pending_cancel": true,
			"size_in_quote": false,
			"total_fees": "5.00",
			"size_inclusive_of_fees": false,
			"total_value_after_fees": "string",
			"trigger_status": "UNKNOWN_TRIGGER_STATUS",
			"order_type": "UNKNOWN_ORDER_TYPE",
			"reject_reason": "REJECT_REASON_UNSPECIFIED",
			"settled": false,
			"product_type": "SPOT",
			"reject_message": "string",
			"cancel_message": "string",
			"order_placement_source": "RETAIL_ADVANCED",
			"outstanding_hold_amount": "string",
			"is_liquidation": false
		}
	}`

	var resp SingleOrderResponse
	if err := json.Unmarshal([]byte(input), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order := resp.Order
	if order.ProductID != "BTC-USD" {
		t.Errorf("ProductID = %q, want BTC-USD", order.ProductID)
	}
	if order.Side != SideUnknown {
		t.Errorf("Side = %q, want UNKNOWN_ORDER_SIDE", order.Side)
	}
	cfg := order.OrderConfiguration
	if cfg.MarketMarketIOC == nil || cfg.LimitLimitGTC == nil || cfg.LimitLimitGTD == nil ||
		cfg.StopLimitStopLimitGTC == nil || cfg.StopLimitStopLimitGTD == nil {
		t.Fatal("all order configurations should decode")
	}
	if cfg.LimitLimitGTC.PostOnly == nil || *cfg.LimitLimitGTC.PostOnly {
		t.Error("limit_limit_gtc post_only should be false")
	}
	if cfg.StopLimitStopLimitGTD.EndTime == nil {
		t.Error("stop_limit_stop_limit_gtd end_time should decode")
	}
	if cfg.StopLimitStopLimitGTC.StopDirection != StopDirectionUnknown {
		t.Errorf("stop_direction = %q, want UNKNOWN_STOP_DIRECTION", cfg.StopLimitStopLimitGTC.StopDirection)
	}
	// Placeholder strings must not break decoding.
	if order.Fee != "string" {
		t.Errorf("Fee = %q, want the raw placeholder", order.Fee)
	}
}

// TestProductDecodeMissingFields tests that optional product fields may be
// absent entirely.
func TestProductDecodeMissingFields(t *testing.T) {
	input := `{
		"product_id": "BAT-ETH",
		"price": "",
		"volume_24h": "6",
		"base_increment": "1",
		"quote_increment": "0.00000001",
		"status": "online",
		"product_type": "SPOT"
	}`

	var p Product
	if err := json.Unmarshal([]byte(input), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Price.Valid {
		t.Error("Price should be invalid")
	}
	if p.PricePercentageChange24h.Valid {
		t.Error("PricePercentageChange24h should be invalid when absent")
	}
	if !p.Volume24h.Valid {
		t.Error("Volume24h should be valid")
	}
}

// TestFutureProductDetailsDecode tests the nested futures metadata.
func TestFutureProductDetailsDecode(t *testing.T) {
	input := `{
		"venue": "cde",
		"contract_code": "BIT",
		"contract_expiry": "2023-07-28T15:00:00Z",
		"contract_size": "0.01",
		"contract_root_unit": "BTC",
		"group_description": "Nano Bitcoin Futures",
		"contract_expiry_timezone": "America/New_York",
		"group_short_description": "Nano BTC",
		"risk_managed_by": "MANAGED_BY_FCM",
		"contract_expiry_type": "EXPIRING",
		"perpetual_details": {
			"open_interest": "1.234",
			"funding_rate": "0.0001",
			"funding_time": "2023-07-05T05:30:57.651784Z"
		},
		"contract_display_name": "BIT 28 JUL 23"
	}`

	var details FutureProductDetails
	if err := json.Unmarshal([]byte(input), &details); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.ContractCode != "BIT" {
		t.Errorf("ContractCode = %q, want BIT", details.ContractCode)
	}
	if details.ContractExpiryType != ContractExpiryTypeExpiring {
		t.Errorf("ContractExpiryType = %q, want EXPIRING", details.ContractExpiryType)
	}
	if details.PerpetualDetails == nil {
		t.Fatal("PerpetualDetails should decode")
	}
	if details.PerpetualDetails.FundingRate != "0.0001" {
		t.Errorf("FundingRate = %s, want 0.0001", details.PerpetualDetails.FundingRate)
	}
}

// TestCandleStartTime tests unix-seconds parsing of the candle bucket.
func TestCandleStartTime(t *testing.T) {
	t.Run("valid start", func(t *testing.T) {
		c := Candle{Start: "1688169600"}
		ts, err := c.StartTime()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
		if !ts.Equal(want) {
			t.Errorf("StartTime = %v, want %v", ts, want)
		}
	})

	t.Run("invalid start", func(t *testing.T) {
		c := Candle{Start: "not-a-timestamp"}
		if _, err := c.StartTime(); err == nil {
			t.Error("expected error for unparseable start")
		}
	})
}
