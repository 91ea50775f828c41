// This program provides a command line client for the ledger node.
package main

import "github.com/kase1111-hash/NatLangChain-sub001/app/tooling/cli/cmd"

func main() {
	cmd.Execute()
}
