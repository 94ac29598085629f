package main

import "github.com/fenix-project/arx/cmd"

func main() {
	cmd.Execute()
}
