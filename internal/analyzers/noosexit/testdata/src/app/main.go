package main

import "os"

func main() {
	defer func() {
		os.Exit(4) // want "os.Exit outside main.main"
	}()
	os.Exit(run())
}

func run() int {
	os.Exit(5) // want "os.Exit outside main.main"
	return 0
}

type app struct{}

func (app) main() {
	os.Exit(6) // want "os.Exit outside main.main"
}
