// Package ui provides the terminal console for büfé administrators.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model.Update is the single event loop: it
// owns the state.Store mutations, the order filter and every piece of
// transient feedback. Work that blocks (REST calls, reading the log file,
// playing the notification sound) runs in tea.Cmd functions and reports back
// as messages.
//
// # Package Structure
//
//   - app.go: Model, Update/View, screen switching and channel update handling
//   - commands.go: Messages and the commands that load data
//   - orders.go: Order table, status filter and order actions
//   - menu.go: Product table, fuzzy search and product edits
//   - hours.go: Weekly opening hours and the emergency closed flag
//   - logs.go: Tail of the console's own log file
//   - modal.go: Alert, confirm, order detail and form dialogs
//   - header.go: Status bar and command bar
//   - help.go: Key binding overlay
//
// # Event Flow
//
//  1. Run starts the program; Init subscribes to the realtime updates.
//  2. Each channel update arrives as updateMsg. Frames are decoded by the
//     realtime.Dispatcher into the state.Applier, whose outcomes drive row
//     highlights, the new order sound and reloads.
//  3. Operator actions call the REST API in a command. Results are applied to
//     the store locally; edits to products, opening hours and the emergency
//     flag are applied first and reverted when the save fails.
//  4. When the channel comes back after a drop, orders are reloaded because
//     pushes sent in between were missed.
//
// The window title always reads "(N) Büfé Admin - Rendelések" where N is the
// number of mirrored orders.
package ui
