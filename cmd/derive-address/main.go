package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"

	"minefactory.backend/internal/config"
	"minefactory.backend/internal/infrastructure/blockchain"
)

const maxCount = 1000

type deriveDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	out     io.Writer
}

func defaultDeriveDeps() deriveDeps {
	return deriveDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		out:     os.Stdout,
	}
}

// runDerive prints the deposit addresses for a range of HD indexes so an
// operator can check a wallet row against the configured seed
func runDerive(args []string, deps deriveDeps) error {
	if deps.loadEnv == nil {
		deps.loadEnv = func() error { return godotenv.Load() }
	}
	if deps.loadCfg == nil {
		deps.loadCfg = config.Load
	}
	if deps.out == nil {
		deps.out = os.Stdout
	}

	fs := flag.NewFlagSet("derive-address", flag.ContinueOnError)
	indexFlag := fs.Uint("index", 0, "first derivation index")
	countFlag := fs.Int("count", 1, "number of consecutive addresses")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *countFlag < 1 || *countFlag > maxCount {
		return fmt.Errorf("--count must be between 1 and %d", maxCount)
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := deps.loadCfg()
	if cfg.Blockchain.HDMnemonic == "" {
		return errors.New("HD_WALLET_MNEMONIC is required")
	}
	wallet, err := blockchain.NewHDWallet(cfg.Blockchain.HDMnemonic, cfg.Blockchain.HDPassphrase)
	if err != nil {
		return fmt.Errorf("failed to load hd wallet: %w", err)
	}

	for i := 0; i < *countFlag; i++ {
		index := uint32(*indexFlag) + uint32(i)
		address, err := wallet.DeriveAddress(index)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(deps.out, "%d\t%s\n", index, address)
	}
	return nil
}

func main() {
	if err := runDerive(os.Args[1:], defaultDeriveDeps()); err != nil {
		log.Fatal(err)
	}
}
