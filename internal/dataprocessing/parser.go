package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"contestlens/pkg/contracts/domain"
)

// ErrUnsupportedFormat is returned for files that are neither delimited text nor a workbook.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// delimiter candidates in tie-break order
var delimiters = []rune{',', ';', '\t', '|'}

var formatByExtension = map[string]domain.FileFormat{
	".csv":  domain.FormatDelimited,
	".txt":  domain.FormatDelimited,
	".tsv":  domain.FormatDelimited,
	".xlsx": domain.FormatWorkbook,
	".xlsm": domain.FormatWorkbook,
	".xltx": domain.FormatWorkbook,
}

// DetectFormat maps a file name to the decoder for it.
func DetectFormat(fileName string) (domain.FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	format, ok := formatByExtension[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return format, nil
}

// ParseResult is the outcome of parsing one export.
type ParseResult struct {
	Format  domain.FileFormat
	Header  []string
	Records []domain.Record
	Stats   domain.ParseStats
}

// Parser converts contest history exports into records.
type Parser struct {
	logger   *slog.Logger
	location *time.Location
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithLogger sets the parser logger.
func WithLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithLocation sets the zone naive contest dates are read in.
func WithLocation(loc *time.Location) ParserOption {
	return func(p *Parser) {
		if loc != nil {
			p.location = loc
		}
	}
}

// NewParser creates a parser. Without WithLocation, dates are read in DefaultTimezone.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.location == nil {
		p.location, _ = LoadLocation(DefaultTimezone)
	}
	p.logger = p.logger.With(slog.String("component", "parser"))
	return p
}

// ParseFile opens path and parses it according to its extension.
func (p *Parser) ParseFile(ctx context.Context, path string) (*ParseResult, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return p.ParseAs(ctx, format, f)
}

// ParseAs parses r with the decoder for format.
func (p *Parser) ParseAs(ctx context.Context, format domain.FileFormat, r io.Reader) (*ParseResult, error) {
	switch format {
	case domain.FormatDelimited:
		return p.Parse(ctx, r)
	case domain.FormatWorkbook:
		return p.ParseWorkbook(ctx, r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Parse reads delimited text with a header row.
// Empty or headerless input yields an empty result. Only read failures and
// context cancellation are returned as errors.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	b := p.newBuilder(domain.FormatDelimited)
	for line := 0; ; line++ {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				b.malformed(parseErr.StartLine, err)
				continue
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		b.add(fields)
	}

	return b.result(), nil
}

func sniffDelimiter(data []byte) rune {
	var first []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			first = line
			break
		}
	}

	counts := make(map[rune]int, len(delimiters))
	inQuotes := false
	for _, c := range string(first) {
		if c == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[c]++
		}
	}

	best := delimiters[0]
	for _, d := range delimiters[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

// recordBuilder runs the row pipeline shared by the text and workbook decoders.
type recordBuilder struct {
	logger   *slog.Logger
	location *time.Location
	format   domain.FileFormat
	header   []string
	records  []domain.Record
	stats    domain.ParseStats
}

func (p *Parser) newBuilder(format domain.FileFormat) *recordBuilder {
	return &recordBuilder{
		logger:   p.logger,
		location: p.location,
		format:   format,
		records:  make([]domain.Record, 0),
	}
}

func (b *recordBuilder) malformed(line int, err error) {
	b.stats.MalformedRows++
	b.logger.Debug("skipping malformed row", slog.Int("line", line), slog.String("error", err.Error()))
}

func (b *recordBuilder) add(fields []string) {
	if isBlank(fields) {
		if b.header != nil {
			b.stats.EmptyRowsSkipped++
		}
		return
	}
	if b.header == nil {
		b.header = normalizeHeader(fields)
		return
	}

	b.stats.RowsRead++
	if len(fields) > len(b.header) {
		b.logger.Debug("dropping extra fields",
			slog.Int("row", b.stats.RowsRead),
			slog.Int("extra", len(fields)-len(b.header)))
	}

	rec := domain.Record{Fields: make(map[string]string, len(b.header))}
	for i, name := range b.header {
		var value string
		if i < len(fields) {
			value = fields[i]
		}

		switch name {
		case domain.FieldSport:
			rec.Sport = value
		case domain.FieldWinningsNonTicket:
			rec.WinningsNonTicket = b.amount(value)
		case domain.FieldWinningsTicket:
			rec.WinningsTicket = b.amount(value)
		case domain.FieldEntryFee:
			rec.EntryFee = b.amount(value)
		case domain.FieldContestDate:
			rec.ContestDate = ParseContestDate(value, b.location)
		default:
			rec.Fields[name] = value
		}
	}
	if !rec.ContestDate.Valid {
		b.stats.InvalidDates++
	}

	b.records = append(b.records, rec)
}

func (b *recordBuilder) amount(raw string) decimal.Decimal {
	d, ok := ParseAmount(raw)
	if !ok && strings.TrimSpace(raw) != "" {
		b.stats.AmountsDefaulted++
	}
	return d
}

func (b *recordBuilder) result() *ParseResult {
	header := b.header
	if header == nil {
		header = []string{}
	}
	b.logger.Info("parsed contest history",
		slog.String("format", string(b.format)),
		slog.Int("columns", len(header)),
		slog.Int("records", len(b.records)),
		slog.Int("malformed_rows", b.stats.MalformedRows),
		slog.Int("amounts_defaulted", b.stats.AmountsDefaulted),
		slog.Int("invalid_dates", b.stats.InvalidDates))

	return &ParseResult{
		Format:  b.format,
		Header:  header,
		Records: b.records,
		Stats:   b.stats,
	}
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// normalizeHeader trims names, fills empty ones and suffixes duplicates.
func normalizeHeader(fields []string) []string {
	header := make([]string, len(fields))
	seen := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimSpace(f)
		if name == "" {
			name = "Column_" + strconv.Itoa(i+1)
		}
		if _, dup := seen[name]; dup {
			base := name
			for n := seen[base] + 1; ; n++ {
				candidate := base + "_" + strconv.Itoa(n)
				if _, taken := seen[candidate]; !taken {
					seen[base] = n
					name = candidate
					break
				}
			}
		}
		seen[name] = 0
		header[i] = name
	}
	return header
}
