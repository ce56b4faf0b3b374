package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next      key.Binding
	Prev      key.Binding
	Left      key.Binding
	Right     key.Binding
	Start     key.Binding
	Send      key.Binding
	Interrupt key.Binding
	Stop      key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Next:      key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:      key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
		Left:      key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "previous value")),
		Right:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next value")),
		Start:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start session")),
		Send:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Interrupt: key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "interrupt")),
		Stop:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "end session")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}
