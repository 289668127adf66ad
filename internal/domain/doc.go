// Package domain models mine-site rockfall monitoring data: environmental
// sensor readings, per-zone risk classifications, probability forecasts, and
// user-facing alerts.
//
// # Data Source
//
// Environmental readings originate from field sensor stations (rain gauges,
// extensometers, piezometers, weather masts) at each mine. A collector at the
// site publishes one flat JSON record per sample to the Kafka source topic;
// the ingest loop parses, validates, and persists them. Readings are
// append-only; for a fixed mine the "latest" reading is the one with the
// maximum timestamp, and timestamps are not required to be unique.
//
// # Units
//
//	rainfall       mm/h   (non-negative)
//	temperature    °C     (may be negative)
//	humidity       %RH    (non-negative)
//	wind_speed     km/h   (non-negative)
//	displacement   mm     (non-negative, cumulative slope movement)
//	pore_pressure  kPa    (non-negative)
//
// Record timestamps are Unix milliseconds. A zero or absent timestamp falls
// back to the transport message time set by the collector.
//
// # Rolling Windows
//
// Forecasting aggregates the most recent readings inside a look-back window:
// strictly newer than now−window, newest first, capped at 100 records. The
// general query window defaults to 24 hours; forecasting uses 72 hours. The
// window and cap bound query cost and keep the forecast reactive to recent
// conditions rather than all history.
//
// # Risk Model
//
// The forecast is an additive threshold rule, not a statistical model:
//
//	probability = 30 (base)
//	  +25 if 72h mean rainfall    > 20 mm/h  ("Heavy rainfall detected")
//	  +20 if 72h max displacement > 3 mm     ("Significant ground displacement")
//	  +15 if high-risk zone count > 2        ("Multiple high-risk zones active")
//	capped at 95; confidence fixed at 85; timeframe "7 days".
//
// The factor list contains exactly the threshold rules that fired, in the
// fixed order rainfall, then displacement, then zone count. An empty window
// carries a zero reading count, and the rainfall and displacement rules never
// fire on it.
//
// # Alert Severity
//
// Alerts use a four-level scale: low < medium < high < critical. The summary
// surfaced to dashboards is urgent when any critical or high alert is unread,
// advisory when any alert is unread, and nominal otherwise.
package domain
