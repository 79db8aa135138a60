// Package config loads the bufeadmin configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/bufeadmin/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or blank, use defaults
//  5. Apply BUFEADMIN_* overrides from a .env file beside the config file,
//     then from the process environment
//
// # Default Values
//
//   - base_url: http://127.0.0.1:8000
//   - ws_path: /ws/bufe/orders/
//   - log_file: ~/.local/share/bufeadmin/bufeadmin.log
//   - log_level: info
//   - log_format: text
//
// # TOML Format
//
//	base_url = "https://bufe.example.com"
//	session_id = "..."
//	csrf_token = "..."
//	log_level = "debug"
//	sound_file = "~/sounds/new-order.wav"
//	sound_command = "paplay"
//
// The session id and CSRF token are usually kept out of the file and set
// through BUFEADMIN_SESSION_ID and BUFEADMIN_CSRF_TOKEN instead.
//
// Tilde expansion is performed on log_file and sound_file.
package config
