// Command gentoken mints a development access token for the XConnect
// server. It reads the same configuration as the server:
//
//	gentoken -user alice
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/xconnect/internal/flagx"
	"github.com/dmitrijs2005/xconnect/internal/server/auth"
	"github.com/dmitrijs2005/xconnect/internal/server/config"
)

func main() {
	args := flagx.FilterArgs(os.Args[1:], []string{"-user"})
	fs := flag.NewFlagSet("gentoken", flag.ExitOnError)
	user := fs.String("user", "", "user id to embed in the token")
	_ = fs.Parse(args)

	if *user == "" {
		log.Fatal("-user is required")
	}

	cfg := config.LoadConfig()
	token, err := auth.GenerateToken(*user, []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Println(token)
}
