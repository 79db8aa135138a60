// Package app is the composition root of bufeadmin.
//
// # Overview
//
// Run loads the configuration and preferences, opens the log, builds a
// Controller and hands it to either the TUI or the headless loop. The
// Controller replaces any package-level state: it owns the REST client, the
// mirrored store, the realtime channel and the notification player, and
// every consumer receives them explicitly.
//
// # Startup
//
//	Run()
//	 ├─> config.Load()         config file, .env, environment
//	 ├─> prefs.Load()          theme and order filter
//	 ├─> newLogger()           log file (TUI) or colorized stdout (headless)
//	 ├─> NewController()       client, store, channel, player
//	 ├─> Controller.Load()     parallel REST snapshot into the store
//	 ├─> Conn.Run()            realtime channel goroutine
//	 └─> ui.Run() | runHeadless()
//
// A failed initial load is not fatal. It is recorded on the store so the
// header can show it, and the refresh key retries it.
//
// # Headless Mode
//
// With -headless the TUI is skipped. Every frame is reconciled into the store
// exactly as the TUI does it, and the result is logged. New orders still play
// the notification sound, and archive_all still triggers an order reload.
package app
