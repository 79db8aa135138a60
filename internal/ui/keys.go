package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Refresh    key.Binding
	Reconnect  key.Binding

	// Screen switching
	ScreenOrders key.Binding
	ScreenMenu   key.Binding
	ScreenHours  key.Binding
	ScreenLog    key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Orders
	CycleFilter     key.Binding
	CycleFilterBack key.Binding
	Detail          key.Binding
	Advance         key.Binding
	ConfirmOrder    key.Binding
	DoneOrder       key.Binding
	DeleteOrder     key.Binding
	ArchiveOrder    key.Binding
	ArchiveAllDone  key.Binding

	// Menu
	Search        key.Binding
	AddProduct    key.Binding
	EditName      key.Binding
	EditPrice     key.Binding
	EditMax       key.Binding
	ToggleChilled key.Binding
	ToggleAvail   key.Binding
	ToggleSoldOut key.Binding

	// Opening hours
	EditFrom        key.Binding
	EditTo          key.Binding
	ToggleEmergency key.Binding

	// Log
	ToggleFollow key.Binding
	CycleLevel   key.Binding

	// Modals
	Confirm   key.Binding
	Cancel    key.Binding
	NextField key.Binding
	PrevField key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Kilépés"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Súgó"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Téma váltása"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Következő nézet"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Előző nézet"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Frissítés"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Újracsatlakozás"),
		),

		ScreenOrders: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Rendelések"),
		),
		ScreenMenu: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Termékek"),
		),
		ScreenHours: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Nyitvatartás"),
		),
		ScreenLog: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "Napló"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Fel"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Le"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Első sor"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Utolsó sor"),
		),

		CycleFilter: key.NewBinding(
			key.WithKeys("f", "right", "l"),
			key.WithHelp("f", "Következő szűrő"),
		),
		CycleFilterBack: key.NewBinding(
			key.WithKeys("F", "left", "h"),
			key.WithHelp("F", "Előző szűrő"),
		),
		Detail: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Részletek"),
		),
		Advance: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Továbblép"),
		),
		ConfirmOrder: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Visszaigazol / visszaállít"),
		),
		DoneOrder: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Kész (átadva)"),
		),
		DeleteOrder: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Töröl"),
		),
		ArchiveOrder: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "Archivál"),
		),
		ArchiveAllDone: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Átadottak archiválása"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Keresés"),
		),
		AddProduct: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Új termék"),
		),
		EditName: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Név"),
		),
		EditPrice: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Ár"),
		),
		EditMax: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Max / rendelés"),
		),
		ToggleChilled: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "Hűtve"),
		),
		ToggleAvail: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Elérhető"),
		),
		ToggleSoldOut: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Kisült"),
		),

		EditFrom: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Nyitás"),
		),
		EditTo: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "Zárás"),
		),
		ToggleEmergency: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "Rendkívüli zárva"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Követés"),
		),
		CycleLevel: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Szint"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Mentés"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Mégse"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Következő mező"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Előző mező"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ScreenOrders, k.ScreenMenu, k.ScreenHours, k.ScreenLog, k.Tab},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.CycleFilter, k.CycleFilterBack, k.Detail, k.Advance, k.ConfirmOrder, k.DoneOrder, k.DeleteOrder, k.ArchiveOrder, k.ArchiveAllDone},
		{k.Search, k.AddProduct, k.EditName, k.EditPrice, k.EditMax, k.ToggleChilled, k.ToggleAvail, k.ToggleSoldOut},
		{k.EditFrom, k.EditTo, k.ToggleEmergency},
		{k.ToggleFollow, k.CycleLevel},
		{k.Refresh, k.Reconnect, k.CycleTheme, k.Help, k.Quit},
	}
}
