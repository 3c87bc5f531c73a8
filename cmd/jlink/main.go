package main

import "github.com/J-Rios/jlink-tools/cmd/jlink/cmd"

func main() {
	cmd.Execute()
}
