package main

import "github.com/usegalaxy-au/galaxy_web/cmd"

func main() {
	cmd.Execute()
}
