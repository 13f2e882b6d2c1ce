// Command rwavc issues and verifies RWA credentials from the command line.
package main

import (
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/pilacorp/go-rwa-vc-sdk/cmd/rwavc/rwacmd"
)

func main() {
	logger := log.New("rwa-vc/cli")

	if err := rwacmd.RootCmd().Execute(); err != nil {
		logger.Fatalf("Failed to run rwavc: %s", err)
	}
}
