// Package api hosts the optional operator listener of a crawl run:
//   - GET /healthz and /readyz for liveness probes.
//   - GET /metrics for Prometheus scraping.
package api
