package main

import (
	"os"

	"horse.fit/newsrank/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
