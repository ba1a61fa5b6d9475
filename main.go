package main

import "vixbot/cmd"

func main() {
	cmd.Execute()
}
