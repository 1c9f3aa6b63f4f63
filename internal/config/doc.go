// Package config handles configuration loading for folder-icons.
//
// # Configuration File
//
// Location, first match wins:
//
//  1. Path from the FOLDER_ICONS_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/folder-icons/config.yaml
//  3. ~/.config/folder-icons/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${FOLDER_ICONS_JWT_SECRET}"
//
// Unset variables expand to the empty string.
//
// # Sizes and Durations
//
// Sizes are parsed with go-humanize ("1MiB", "512 kB", "1048576").
// Durations use time.ParseDuration ("10s", "720h").
//
// # Configuration Sections
//
//	server:
//	  http_addr: "localhost:8080"
//	  shutdown_timeout: "10s"
//
//	database:
//	  path: "/var/lib/folder-icons/icons.db"
//
//	icons:
//	  dir: "/var/lib/folder-icons/userContent/customFolderIcons"
//	  max_upload_size: "1MiB"
//	  symbols_file: "/etc/folder-icons/symbols.toml"
//
//	uploads:
//	  rate_per_second: 5
//	  burst: 10
//
//	auth:
//	  jwt_secret: "${FOLDER_ICONS_JWT_SECRET}"  # empty disables auth
//	  token_ttl: "720h"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// database.path and icons.dir are required; everything else has a default.
package config
