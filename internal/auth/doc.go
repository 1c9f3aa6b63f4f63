// Package auth provides authentication and authorization for the folder-icons API.
//
// # Tokens
//
// Clients authenticate with JWT bearer tokens signed with HS256 using the
// configured jwt_secret (at least MinSecretLength bytes). Tokens carry:
//
//   - sub: the principal ID
//   - adm: true for administrators
//   - cfg: folder IDs the principal may configure ("*" for all)
//
// Tokens are minted with the CLI:
//
//	folder-icons token --subject ci-bot --configure f1,f2
//
// # Permissions
//
// Two permissions gate the API:
//
//   - Admin: upload without a folder, sweep, disk usage, folder and job administration
//   - Configure(folder): upload for, change the icon of, or delete a folder
//
// Admins hold configure permission on every folder.
//
// # HTTP Middleware
//
//	HTTPAuthMiddleware(verifier) // verifies the token, attaches AuthContext
//	RequireAdminHTTP()           // 403 unless admin
//	RequireConfigureHTTP()       // 403 unless CanConfigure(r.PathValue("id"))
//
// Handlers read the caller with FromContext. With a nil verifier
// authentication is disabled and every request runs as an anonymous admin.
package auth
