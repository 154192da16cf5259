package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/Veraticus/panel-keeper/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{
			name:      "valid string",
			str:       "test",
			paramName: "param",
			wantErr:   false,
		},
		{
			name:      "empty string",
			str:       "",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			str:       "   ",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "string with spaces",
			str:       "  test  ",
			paramName: "param",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error should contain param name %s, got %v", tt.paramName, err)
			}
		})
	}
}

func TestValidatePeriod(t *testing.T) {
	tests := []struct {
		name    string
		period  model.Period
		wantErr bool
	}{
		{name: "valid", period: 202203},
		{name: "december", period: 202112},
		{name: "month zero", period: 202200, wantErr: true},
		{name: "month thirteen", period: 202213, wantErr: true},
		{name: "zero", period: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePeriod(tt.period)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePeriod() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateActivity(t *testing.T) {
	valid := model.ActivityRecord{MerchantKey: "m1", Period: 202203, SubCategory: "522110", TxnCount: 1, TotalValue: 10}

	tests := []struct {
		name    string
		errMsg  string
		records []model.ActivityRecord
		wantErr bool
	}{
		{
			name:    "valid records",
			records: []model.ActivityRecord{valid},
		},
		{
			name:    "explicit category without subcategory",
			records: []model.ActivityRecord{{MerchantKey: "m1", Period: 202203, Category: "522"}},
		},
		{
			name:    "nil records",
			records: nil,
			wantErr: true,
			errMsg:  "records",
		},
		{
			name: "second record invalid",
			records: []model.ActivityRecord{
				valid,
				{Period: 202203, SubCategory: "522110"},
			},
			wantErr: true,
			errMsg:  "index 1",
		},
		{
			name:    "missing category",
			records: []model.ActivityRecord{{MerchantKey: "m1", Period: 202203}},
			wantErr: true,
			errMsg:  "missing category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateActivity(tt.records)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateActivity() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateActivity() error should contain %s, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestValidateKeys(t *testing.T) {
	if err := validateKeys(nil); err != nil {
		t.Errorf("validateKeys(nil) error = %v", err)
	}
	if err := validateKeys([]string{"a", "b"}); err != nil {
		t.Errorf("validateKeys() error = %v", err)
	}
	err := validateKeys([]string{"a", ""})
	if err == nil || !strings.Contains(err.Error(), "index 1") {
		t.Errorf("validateKeys() error = %v, want index 1", err)
	}
}
