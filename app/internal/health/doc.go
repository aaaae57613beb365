// Package health turns raw check events into the summaries drawn on the
// dashboard and the public status page: daily uptime buckets, the tone
// used to colour them, and a bounded latency series with its chart
// geometry.
//
// Everything here is a pure function of its arguments. Callers pass the
// current time explicitly, so two renders of the same events at the same
// instant produce identical output.
package health
