// Package server exposes folder icons over HTTP.
//
// # Routes
//
// Public:
//
//	GET  /health
//	GET  /icons/{identity}.png            image, ETag = content digest
//
// Assets:
//
//	POST /api/icons                       admin; multipart "file" or raw body
//	GET  /api/icons                       identities, newest first
//	GET  /api/icons/{identity}            size, digest, color, referencing folders
//	GET  /api/icons/usage                 admin
//	POST /api/icons/cleanup               admin; sweep unreferenced assets
//	GET  /api/symbols                     symbol catalog names
//
// Folders:
//
//	POST   /api/folders                   admin
//	GET    /api/folders
//	GET    /api/folders/{id}
//	DELETE /api/folders/{id}              configure(id)
//	PUT    /api/folders/{id}/icon         configure(id)
//	POST   /api/folders/{id}/icon/upload  configure(id); ?attach=true sets the icon
//	GET    /api/folders/{id}/status
//	PUT    /api/folders/{id}/jobs/{name}        admin; CI feed
//	POST   /api/folders/{id}/jobs/{name}/runs   admin; CI feed
//
// # Errors
//
// Errors are JSON {"error": "..."}. Validation failures are 400, unknown
// folders 404, duplicates 409, rate-limited uploads 429, and I/O failures 500.
package server
