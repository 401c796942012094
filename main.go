package main

import "github.com/kozaktomas/caregiver-faces/cmd"

func main() {
	cmd.Execute()
}
