package main

import "github.com/raceviz/race-view-service-go/cmd"

func main() {
	cmd.Execute()
}
