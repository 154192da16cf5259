package main

import (
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActivityCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []model.ActivityRecord
		wantErr string
	}{
		{
			name: "header and rows",
			input: `period,merchant_key,category,subcategory,txn_count,total_value
202203,m1,522,522110,12,340.5
202203, m2 ,445,445110,3,20
`,
			want: []model.ActivityRecord{
				{Period: 202203, MerchantKey: "m1", Category: "522", SubCategory: "522110", TxnCount: 12, TotalValue: 340.5},
				{Period: 202203, MerchantKey: "m2", Category: "445", SubCategory: "445110", TxnCount: 3, TotalValue: 20},
			},
		},
		{
			name: "no header and comments",
			input: `# exported activity
202112,m9,,522120,1,1.25
`,
			want: []model.ActivityRecord{
				{Period: 202112, MerchantKey: "m9", SubCategory: "522120", TxnCount: 1, TotalValue: 1.25},
			},
		},
		{
			name:    "bad period",
			input:   "2022Q3,m1,522,522110,1,1\n",
			wantErr: "line 1",
		},
		{
			name:    "bad txn count",
			input:   "202203,m1,522,522110,many,1\n",
			wantErr: "bad txn_count",
		},
		{
			name:    "bad value",
			input:   "202203,m1,522,522110,1,lots\n",
			wantErr: "bad total_value",
		},
		{
			name:    "wrong column count",
			input:   "202203,m1,522\n",
			wantErr: "wrong number of fields",
		},
		{
			name:    "header only",
			input:   "period,merchant_key,category,subcategory,txn_count,total_value\n",
			wantErr: "no activity rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseActivityCSV(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadKeys(t *testing.T) {
	t.Run("dedups and skips header", func(t *testing.T) {
		input := `merchant_key,name
m1,Acme
# comment

m2
m1
`
		keys, err := readKeys(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, []string{"m1", "m2"}, keys)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := readKeys(strings.NewReader("\n# nothing\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no merchant keys")
	})
}

func TestPeriodArg(t *testing.T) {
	now := time.Date(2022, time.January, 15, 10, 0, 0, 0, time.UTC)

	p, err := periodArg("", now)
	require.NoError(t, err)
	assert.Equal(t, model.Period(202112), p)

	p, err = periodArg("202203", now)
	require.NoError(t, err)
	assert.Equal(t, model.Period(202203), p)

	_, err = periodArg("202213", now)
	assert.ErrorIs(t, err, model.ErrInvalidPeriod)
}
