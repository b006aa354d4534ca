// @title                      CMS API
// @version                    1.0
// @description                Multi-role content management API with realtime updates.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/inkframe/cms-api/internal/cli"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := cli.NewRootCmd(version, buildDate).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "cmsd:", err)
		os.Exit(1)
	}
}
