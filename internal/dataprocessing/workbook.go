package dataprocessing

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"contestlens/pkg/contracts/domain"
)

// ParseWorkbook reads the first sheet holding a non-empty row and feeds it
// through the same row pipeline as Parse.
func (p *Parser) ParseWorkbook(ctx context.Context, r io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	b := p.newBuilder(domain.FormatWorkbook)
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			p.logger.Warn("skipping unreadable sheet", slog.String("sheet", sheet), slog.String("error", err.Error()))
			continue
		}
		if !hasData(rows) {
			continue
		}

		p.logger.Debug("reading contest sheet", slog.String("sheet", sheet), slog.Int("rows", len(rows)))
		for i, row := range rows {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			b.add(row)
		}
		break
	}

	return b.result(), nil
}

func hasData(rows [][]string) bool {
	for _, row := range rows {
		if !isBlank(row) {
			return true
		}
	}
	return false
}
