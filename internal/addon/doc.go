// Package addon serves classifications over HTTP in the shape media-center
// stream addons expect.
//
// The router is chi with a fixed middleware stack: panic recovery, request
// IDs, permissive CORS, Prometheus metrics, access logging and per-IP rate
// limiting. GET /stream/{type}/{id}.json answers every request with either an
// empty stream list or a single informational stream whose title carries the
// filler status. /manifest.json, /api/status, /metrics and a small landing
// page complete the surface.
package addon
