package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"groq-chatbot/internal/chat"
	"groq-chatbot/internal/client"
	"groq-chatbot/internal/config"
	"groq-chatbot/internal/tui"
)

const greeting = "Hi! Ask me anything and I'll research it for you."

func main() {
	cfg := config.Load()

	api := client.New(cfg.AgentURL)
	conv := chat.NewConversationWithGreeting(greeting)
	ctrl := chat.NewController(conv, api)

	p := tea.NewProgram(tui.New(ctrl, api, cfg.AgentURL), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "chat fatal error: %v\n", err)
		os.Exit(1)
	}
}
