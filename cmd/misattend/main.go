package main

import (
	"misattend/cmd/misattend/commands"
	"misattend/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
