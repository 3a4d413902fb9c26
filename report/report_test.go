package report

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/covidnl/dataset"
)

func daily(date, code, name, province string, pop float64, cases int) dataset.Daily {
	d, _ := time.Parse(dataset.DateLayout, date)
	return dataset.Daily{Date: d, Code: code, Name: name, Province: province, Population: pop, TotalReported: cases}
}

func fixture() []dataset.Daily {
	return []dataset.Daily{
		daily("2021-01-10", "GM0344", "Utrecht", "Utrecht", 361000, 200),
		daily("2021-02-10", "GM0344", "Utrecht", "Utrecht", 361000, 50),
		daily("2021-01-10", "GM0307", "Amersfoort", "Utrecht", 158000, 80),
		daily("2021-01-10", "GM0599", "Rotterdam", "Zuid-Holland", math.NaN(), 10),
	}
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, fixture()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetMunicipalities, SheetProvinces, SheetNational, SheetMonthly}, f.GetSheetList())

	prov, err := f.GetRows(SheetProvinces)
	require.NoError(t, err)
	require.Len(t, prov, 3)
	assert.Equal(t, []string{"Year", "Province", "Population", "Cases", "Deaths", "Hospital admissions",
		"Cases per 100,000", "Deaths per 100,000", "Hospital admissions per 100,000"}, prov[0])
	assert.Equal(t, []string{"2021", "Utrecht", "519000", "330", "0", "0", "63.58", "0", "0"}, prov[1])

	mun, err := f.GetRows(SheetMunicipalities)
	require.NoError(t, err)
	require.Len(t, mun, 4)
	assert.Equal(t, []string{"2021", "GM0599", "Rotterdam", "Zuid-Holland", "", "10", "0", "0"}, mun[3])

	monthly, err := f.GetRows(SheetMonthly)
	require.NoError(t, err)
	require.Len(t, monthly, 3)
	assert.Equal(t, "2021-01", monthly[1][0])
	assert.Equal(t, "290", monthly[1][2])
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.xlsx")
	require.NoError(t, WriteFile(path, fixture()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 4)
}
