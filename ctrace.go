package main

import (
	"os"

	"github.com/yuuki0xff/ctrace/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
