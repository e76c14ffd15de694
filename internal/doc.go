// Package pvmon implements energy monitoring and yield forecasting for a
// home photovoltaic/battery/grid installation.
//
// # Architecture
//
// The service is structured into several key packages:
//   - solar: sunrise/sunset windows and the window classifier
//   - telemetry: live device-state aggregation from the MQTT feed
//   - forecast: yield forecast fetch, correction, integration and history
//   - status: structured outputs for the dashboard layer
//   - config: static installation configuration
//   - models: shared data structures
//
// Key behaviors
//
//   - Day windows:
//     Each day is split into loading, evening and night windows derived
//     from sunrise/sunset with fixed 1.5-hour offsets; the night window
//     may span midnight.
//
//   - Telemetry:
//     A single goroutine owns the snapshot; transport callbacks only
//     enqueue messages, and readers always receive consistent copies.
//
//   - Forecasting:
//     Twice a day the expected yield of the loading window is computed by
//     trapezoidal integration of the corrected external power curve and
//     appended to a JSON history.
//
// For more information about specific packages, see their respective
// documentation.
package pvmon
