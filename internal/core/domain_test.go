package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPaymentRecordValidate(t *testing.T) {
	good := PaymentRecord{
		Amount:      decimal.NewFromInt(100),
		PaymentDate: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		CentreID:    1,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []PaymentRecord{
		{Amount: decimal.NewFromInt(-1), PaymentDate: good.PaymentDate, CentreID: 1},
		{Amount: decimal.NewFromInt(1), CentreID: 1},
		{Amount: decimal.NewFromInt(1), PaymentDate: good.PaymentDate},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestRevenueCategoryValidate(t *testing.T) {
	if err := (RevenueCategory{Code: "1", Description: "x"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (RevenueCategory{Description: "x"}).Validate(); err == nil {
		t.Fatalf("expected error for empty code")
	}
	if err := (Centre{Name: " "}).Validate(); err == nil {
		t.Fatalf("expected error for blank centre name")
	}
}

func TestDefaultCategoriesAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range DefaultCategories() {
		if err := c.Validate(); err != nil {
			t.Fatalf("%s: %v", c.Code, err)
		}
		if seen[c.Code] {
			t.Fatalf("duplicate code %s", c.Code)
		}
		seen[c.Code] = true
	}
	if !seen[DefaultSplitCategoryCode] {
		t.Fatalf("catalog is missing the split category")
	}
}
