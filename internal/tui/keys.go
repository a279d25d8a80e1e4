package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next      key.Binding
	Prev      key.Binding
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
	Verify    key.Binding
	Retry     key.Binding
	NewIntake key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:      key.NewBinding(key.WithKeys("enter", "pgdown"), key.WithHelp("enter", "próxima etapa")),
		Prev:      key.NewBinding(key.WithKeys("esc", "pgup"), key.WithHelp("esc", "etapa anterior")),
		NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "próximo campo")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "campo anterior")),
		Submit:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "enviar")),
		Verify:    key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "verificar CPF")),
		Retry:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "recarregar catálogos")),
		NewIntake: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "nova matrícula")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "sair")),
	}
}

func (k keyMap) shortcuts() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.NextField, k.Submit, k.Verify, k.Quit}
}
