package sdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMatch(t *testing.T) {
	m, warnings, err := ParseMatch([]string{"company=Acme", " broker_id = 3", "active=TRUE", "salary=40.00", "", "company=Globex"})
	require.NoError(t, err)
	assert.Equal(t, Match{"company": "Globex", "broker_id": int64(3), "active": true, "salary": "40.00"}, m)
	assert.Equal(t, []string{`duplicate field "company", last value wins`}, warnings)

	_, _, err = ParseMatch([]string{"no-equals"})
	assert.Error(t, err)

	_, _, err = ParseMatch([]string{"Bad-Key=1"})
	assert.Error(t, err)
}

func TestMatch_Expression(t *testing.T) {
	assert.Empty(t, Match{}.Expression())
	assert.Equal(t,
		`active == true and broker_id == 3 and company == "Acme"`,
		Match{"company": "Acme", "broker_id": int64(3), "active": true}.Expression(),
	)
}

func TestCombineFilters(t *testing.T) {
	assert.Empty(t, CombineFilters("", "  "))
	assert.Equal(t, `a == 1`, CombineFilters("", "a == 1"))
	assert.Equal(t, `(a == 1) and (b == "x")`, CombineFilters("a == 1", `b == "x"`))
}

func TestMatch_FiltersRows(t *testing.T) {
	rows := []BrokerSalaryRow{
		{BrokerID: 1, Company: "Acme", Salary: "40.00"},
		{BrokerID: 2, Company: "Acme", Salary: "12.50"},
	}
	m, _, err := ParseMatch([]string{"company=Acme", "salary=40.00"})
	require.NoError(t, err)

	kept, err := FilterRows(rows, m.Expression())
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, int64(1), kept[0].BrokerID)
}
