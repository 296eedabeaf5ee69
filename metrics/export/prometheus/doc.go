// Package prometheus renders hostjwt issuance metrics in Prometheus text exposition format.
//
// [NewPrometheusExporter] reads a [hostjwt.Provider] and exposes an [http.Handler]. Counter
// names are hostjwt_*_total; the single histogram is hostjwt_issue_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate provider state.
package prometheus
