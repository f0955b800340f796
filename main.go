package main

import "svcman/cmd"

func main() {
	cmd.Execute()
}
