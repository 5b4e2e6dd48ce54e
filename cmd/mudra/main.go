package main

import "github.com/ayusman/mudra/internal/cmd"

func main() {
	cmd.Execute()
}
