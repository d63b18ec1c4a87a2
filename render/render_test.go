package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/olap/engine"
)

func sampleTable() *engine.ResultTable {
	return &engine.ResultTable{
		Title:   "Roll-up",
		Headers: []engine.Header{{"Year"}, {"2024", "Q1"}, {"Quantity"}},
		Rows: []engine.Row{
			{2024, decimal.RequireFromString("1234.5"), int64(1500)},
			{2025, nil, int64(3)},
		},
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1,234.50", FormatAmount(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0.00", FormatAmount(decimal.Zero))
	assert.Equal(t, "-12,345,678.90", FormatAmount(decimal.RequireFromString("-12345678.9")))
	assert.Equal(t, "999.99", FormatAmount(decimal.RequireFromString("999.99")))
	assert.Equal(t, "1,000", FormatInt(1000))
	assert.Equal(t, "-1,234,567", FormatInt(-1234567))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleTable()))

	want := `{"title":"Roll-up","headers":["Year","2024 / Q1","Quantity"],"rows":[` +
		`{"Year":2024,"2024 / Q1":1234.5,"Quantity":1500},` +
		`{"Year":2025,"2024 / Q1":0,"Quantity":3}]}` + "\n"
	assert.Equal(t, want, buf.String())
	assert.True(t, json.Valid(buf.Bytes()))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable(), &engine.ResultTable{Headers: []engine.Header{{"Empty"}}}))

	assert.Equal(t,
		"Year,2024 / Q1,Quantity\n2024,1234.5,1500\n2025,0,3\n\nEmpty\n",
		buf.String())
}

func TestWriteCSVKeepsPrecision(t *testing.T) {
	avg := decimal.NewFromInt(100).Div(decimal.NewFromInt(3))
	tbl := &engine.ResultTable{
		Headers: []engine.Header{{"Channel"}, {"Avg Sales"}, {"Sales"}},
		Rows:    []engine.Row{{"Online", avg, decimal.RequireFromString("10.125")}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))
	assert.Equal(t, "Channel,Avg Sales,Sales\nOnline,"+avg.String()+",10.125\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, tbl))
	assert.Contains(t, buf.String(), `"Avg Sales":`+avg.String())
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleTable()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "== Roll-up ==\n"))
	assert.Contains(t, out, "1,234.50")
	assert.Contains(t, out, "1,500")
	assert.Contains(t, out, "2024 / Q1")
	assert.NotContains(t, out, "2,024", "years are not digit-grouped")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": JSON, "CSV": CSV, " text ": Text, "": Text} {
		f, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, f)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)

	var buf bytes.Buffer
	assert.Error(t, Write(&buf, Format("xml"), sampleTable()))
}
