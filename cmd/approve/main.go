// Command approve prints an approval token for a principal, to be sent as
// a Bearer token or X-Approval header.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/congo-pay/invoice_pool/internal/auth"
	"github.com/congo-pay/invoice_pool/internal/config"
	"github.com/congo-pay/invoice_pool/internal/host"
)

func main() {
	principal := flag.String("principal", "", "principal approving the call")
	ttl := flag.Duration("ttl", 15*time.Minute, "token lifetime, 0 for no expiry")
	flag.Parse()

	if *principal == "" {
		fmt.Fprintln(os.Stderr, "usage: approve -principal <name> [-ttl 15m]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	gate, err := auth.NewGate(cfg.JWTSecret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "approval gate: %v\n", err)
		os.Exit(1)
	}
	token, err := gate.Sign(host.Principal(*principal), *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
