package main

import "github.com/jobayer109/My-monitor/cmd"

func main() {
	cmd.Execute()
}
