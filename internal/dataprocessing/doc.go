// Package dataprocessing turns a contest history export into records, per-sport
// aggregates and filtered table views.
//
// # Architecture
//
// The package is organized into three main components:
//
// 1. Parser: reads delimited text or an xlsx workbook and builds domain.Record values
// 2. Aggregator: sums winnings and entry fees per sport for the chart
// 3. Filter engine: narrows records by sport, contest date window and free text
//
// Every function here is synchronous and works on an in-memory slice. None of
// them read the wall clock; Filter takes "now" as an argument.
//
// # Usage
//
//	parser := dataprocessing.NewParser(dataprocessing.WithLocation(loc))
//	result, err := parser.ParseFile(ctx, "contest-history.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	buckets := dataprocessing.Aggregate(result.Records)
//	rows := dataprocessing.Filter(result.Records, domain.FilterCriteria{Sport: "NFL"}, time.Now())
//	page := dataprocessing.Paginate(rows, 1, dataprocessing.DefaultPageSize)
//
// # Data Flow
//
//	CSV/XLSX → Parser → []domain.Record → Aggregate → []domain.AggregateBucket
//	                                    ↘ Filter → []domain.Row → Paginate → domain.Page
//
// # Error Handling
//
// Bad input degrades instead of failing:
//
//	- Unparsable amounts become zero
//	- Unparsable contest dates become the invalid-date sentinel
//	- Malformed CSV rows are skipped and counted in ParseStats
//
// Only I/O failures, context cancellation and unreadable workbooks are returned as errors.
package dataprocessing
