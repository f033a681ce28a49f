package lib

import (
	"os"
	sys "os"
)

func Fail() {
	os.Exit(1) // want "os.Exit outside main.main"
}

func Aliased() {
	sys.Exit(2) // want "os.Exit outside main.main"
}

type Exiter struct{}

func (Exiter) Exit(int) {}

func NotOS() {
	Exiter{}.Exit(3)
}
