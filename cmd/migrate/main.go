// Command migrate applies or reverts the database schema.
//
//	migrate up
//	migrate down [n]
//	migrate version
package main

import (
	"fmt"
	"os"
	"strconv"

	"tesoreria/internal/config"
	"tesoreria/internal/infra"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: migrate up | down [n] | version")
		os.Exit(2)
	}

	dsn := config.DatabaseURL()

	switch os.Args[1] {
	case "up":
		if err := infra.Migrar(dsn); err != nil {
			log.Fatal().Err(err).Msg("migrate up")
		}
		log.Info().Msg("migrations applied")
	case "down":
		n := 1
		if len(os.Args) > 2 {
			var err error
			if n, err = strconv.Atoi(os.Args[2]); err != nil || n < 1 {
				log.Fatal().Str("n", os.Args[2]).Msg("n must be a positive integer")
			}
		}
		if err := infra.Revertir(dsn, n); err != nil {
			log.Fatal().Err(err).Msg("migrate down")
		}
		log.Info().Int("steps", n).Msg("migrations reverted")
	case "version":
		v, dirty, err := infra.VersionMigraciones(dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("migrate version")
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
	default:
		fmt.Fprintf(os.Stderr, "comando desconocido %q\n", os.Args[1])
		os.Exit(2)
	}
}
