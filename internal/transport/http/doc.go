// Package http implements the contestlens HTTP handlers. Handlers parse the
// request, call a service and render the result; every failure goes through
// errors.ErrorHandler so clients always receive an RFC 7807 problem document.
//
// Routes (mounted by internal/app):
//
//	POST   /api/data/upload                  multipart field "file"
//	DELETE /api/data                         discard the active dataset
//	GET    /api/data/dataset                 dataset metadata
//	GET    /api/data/chart                   per-sport aggregates
//	GET    /api/data/summary                 dataset-wide totals
//	GET    /api/data/sports                  sport selector options
//	GET    /api/data/columns                 table columns
//	GET    /api/data/records                 ?sport=&range=&q=&page=&page_size=
//	GET    /api/data/export/{kind}.{format}  chart|records, csv|xlsx
//	POST   /api/logs                         dashboard log forwarding
//	GET    /api/health, /api/health/live, /api/health/ready, /api/version
//	GET    /ws                               dataset change events
//	GET    /metrics                          Prometheus exposition
package http
