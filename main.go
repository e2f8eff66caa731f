package main

import "github.com/KaramelBytes/insightigraph/cmd"

func main() {
	cmd.Execute()
}
