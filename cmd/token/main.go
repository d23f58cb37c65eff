// Command token issues an operator access token signed with the server's
// token secret. It reads the same configuration sources as the server.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/farmsync/internal/cryptox"
	"github.com/dmitrijs2005/farmsync/internal/flagx"
	"github.com/dmitrijs2005/farmsync/internal/server/auth"
	"github.com/dmitrijs2005/farmsync/internal/server/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var operatorID string
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&operatorID, "operator", "", "operator ID; a new one is generated when empty")
	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], "operator")); err != nil {
		log.Fatalf("flags: %v", err)
	}

	if operatorID == "" {
		operatorID, err = cryptox.NewOperatorID()
		if err != nil {
			log.Fatalf("operator id: %v", err)
		}
	}

	token, err := auth.GenerateToken(operatorID, []byte(cfg.SecretKey), cfg.TokenValidity)
	if err != nil {
		log.Fatalf("token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "operator %s, valid for %s\n", operatorID, cfg.TokenValidity)
	fmt.Println(token)
}
