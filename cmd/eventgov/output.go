package main

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/agenthands/eventgov/internal/core/model"
)

var (
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

func header(title string) {
	fmt.Printf("\n%s\n\n", cyan("=== "+title+" ==="))
}

func statusColor(s model.ConsistencyStatus) func(a ...interface{}) string {
	switch s {
	case model.StatusSilver:
		return green
	case model.StatusGray:
		return yellow
	default:
		return gray
	}
}

func pct(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}
