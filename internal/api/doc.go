// Package api exposes the agency report over HTTP.
//
// Routes:
//
//	GET /api/list-agencies  run a report; query: regions, service_groups, skip, on_page_error, strategy
//	GET /health             liveness
//	GET /ready              readiness (pings Redis when the page cache is enabled)
//	GET /metrics            Prometheus metrics
//	GET /docs/openapi.json  OpenAPI 3.0 document for /api/list-agencies
//
// regions and service_groups are JSON-encoded string arrays, for example
// regions=["AU","NZ"]. skip is the last page index fetched. Successful runs
// answer {"message":"Data fetched successfully","data":[...],"code":200};
// invalid queries answer 400 and failed runs 502 with the same envelope.
package api
