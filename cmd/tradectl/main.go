package main

import "github.com/tradedesk/tradedesk/cmd/tradectl/cmd"

func main() {
	cmd.Execute()
}
