// Package adminapi serves the JSON API under /api.
package adminapi

// Init registers every API route on the global web server
func Init() {
	registerProductRoutes()
	registerTransactionRoutes()
	registerReportRoutes()
	registerSystemRoutes()
}
