package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/ecorewards/ecorewards/internal/client/config"
	"github.com/ecorewards/ecorewards/internal/utils"
)

var (
	// https://github.com/muesli/termenv/blob/master/ansicolors.go
	red       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	green     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	yellow    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cyan      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	gray      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	lightGray = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
)

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, cyan.Bold(true).Render("ECOREWARDS CONFIG"))
	printField(w, "Email", cfg.Email)
	printField(w, "Server", cfg.ServerURL)
	printField(w, "Config", cfg.Path)
	if cfg.RefreshToken != "" {
		printField(w, "Session", utils.MaskSecret(cfg.RefreshToken))
	}
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s%s\n", gray.Render(fmt.Sprintf("%-9s", label)), lightGray.Render(value))
}
