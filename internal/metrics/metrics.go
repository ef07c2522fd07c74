// Package metrics provides application-level counters using stdlib expvar.
// Counters are automatically exported on the /debug/vars HTTP endpoint
// when net/http/pprof is imported in the main binary.
package metrics

import "expvar"

// Operation counters.
var (
	DentsFetchTotal    = expvar.NewInt("hive_dents_fetch_total")
	DentsFallbackTotal = expvar.NewInt("hive_dents_fallback_total")
	ProxyForwardTotal  = expvar.NewInt("hive_proxy_forward_total")
	UploadTotal        = expvar.NewInt("hive_upload_total")
	UploadFailedTotal  = expvar.NewInt("hive_upload_failed_total")
)

// Inc increments the given counter by 1.
func Inc(counter *expvar.Int) { counter.Add(1) }
