// Command demo drives the calculate/progress scenario (a calculator
// contract with server-to-client progress notifications and a domain
// error case) end to end over an in-memory transport pair, exercising the
// full message/channel/typedchannel/contract stack in one process.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
