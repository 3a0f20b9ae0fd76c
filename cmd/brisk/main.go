package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"brisk"
)

const (
	version     = "0.1.0"
	historyFile = ".brisk_history"
	promptMain  = "brisk> "
)

var banner = fmt.Sprintf("Brisk %s — Ctrl+D exits.", version)

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		os.Exit(runREPL())
	}
	switch args[0] {
	case "-h", "--help":
		usage()
		return
	case "-v", "--version":
		fmt.Println(version)
		return
	default:
		os.Exit(runFile(args[0]))
	}
}

func usage() {
	fmt.Println("usage: brisk [-h|--help] [-v|--version] [file.brisk]")
	fmt.Println("  with no arguments, starts an interactive REPL")
}

func runFile(path string) int {
	ip := brisk.NewInterpreter()
	if err := ip.RunFile(path); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

func runREPL() int {
	color := isatty.IsTerminal(os.Stdout.Fd())

	ip := brisk.NewInterpreter()
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Println(banner)
	for {
		input, err := line.Prompt(promptMain)
		if err != nil {
			if err == liner.ErrPromptAborted || err.Error() == "EOF" {
				return 0
			}
			fmt.Fprintln(os.Stderr, err.Error())
			return 1
		}
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		ip.ClearError()
		v, err := ip.EvalExpression(input)
		if err != nil {
			if color {
				fmt.Fprintln(os.Stderr, red(err.Error()))
			} else {
				fmt.Fprintln(os.Stderr, err.Error())
			}
			continue
		}
		if !v.IsNull() {
			rendered := brisk.ToString(v)
			if color {
				fmt.Println(green(rendered))
			} else {
				fmt.Println(rendered)
			}
		}
	}
}
