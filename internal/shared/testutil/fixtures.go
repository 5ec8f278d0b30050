package testutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ContestHistoryCSV is a small export with one malformed amount, one blank
// amount and one unparseable date. Measured from 2024-10-01 the dated rows
// are 6, 61 and 122 days old.
const ContestHistoryCSV = `Sport,Entry_Key,Contest_Date_EST,Entry_Fee,Winnings_Non_Ticket,Winnings_Ticket,Title
NFL,1,2024-09-25 13:00:00,$10.00,$25.00,$0.00,Sunday Million
NBA,2,2024-08-01 19:00:00,$5.00,$0.00,$0.00,Hoops
NFL,3,2024-06-01 13:00:00,$3.00,abc,$2.00,Early Bird
MLB,4,not a date,$1.00,$1.50,,Dingers
`

// WorkbookBytes builds an .xlsx file whose first sheet holds rows
func WorkbookBytes(t *testing.T, sheet string, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}
