package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
)

var (
	file      string
	watch     bool
	country   string
	postal    string
	taxID     string
	validated bool
	amount    float64
	german    bool
)

func init() {
	flag.Usage = helpMessage
	flag.StringVar(&file, "file", "", "Read addresses from this file, one per line")
	flag.BoolVar(&watch, "watch", false, "Re-evaluate -file whenever it changes")
	flag.StringVar(&country, "country", "", "Explicit country code, wins over every address")
	flag.StringVar(&postal, "postal", "", "Explicit postal code, wins over every address")
	flag.StringVar(&taxID, "tax-id", "", "Tax identifier of the customer")
	flag.BoolVar(&validated, "validated", false, "The tax identifier passed an external validation check")
	flag.Float64Var(&amount, "amount", 0, "Net amount to compute VAT and total for")
	flag.BoolVar(&german, "german", false, "Format amounts the German way (1.234,56)")
}

func helpMessage() {
	output := flag.CommandLine.Output()
	fmt.Fprintf(output, "Usage of %s: [flags] [address...]\n\n", os.Args[0])
	fmt.Fprintln(output, "Determines the country and VAT treatment of customer addresses.")
	fmt.Fprintln(output, "\nFlags:")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()
	opts := options{
		Country:   country,
		Postal:    postal,
		TaxID:     taxID,
		Validated: validated,
		Amount:    amount,
		German:    german,
	}
	for _, warning := range opts.warnings() {
		color.Yellow("warning: %s", warning)
	}

	if err := run(opts); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if watch {
		if file == "" {
			return fmt.Errorf("-watch needs a -file to watch")
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return watchFile(ctx, file, func() {
			if err := checkFile(os.Stdout, file, opts); err != nil {
				color.Red("error: %v", err)
			}
		})
	}

	if file != "" {
		return checkFile(os.Stdout, file, opts)
	}

	addresses := flag.Args()
	if len(addresses) == 0 && opts.Country == "" && opts.Postal == "" && opts.TaxID == "" {
		flag.Usage()
		return fmt.Errorf("no address given")
	}
	if len(addresses) == 0 {
		addresses = []string{""}
	}
	render(os.Stdout, evaluate(addresses, opts), opts.German)
	return nil
}

func checkFile(w io.Writer, path string, opts options) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open address file: %w", err)
	}
	defer f.Close()

	addresses, err := readAddresses(f)
	if err != nil {
		return err
	}
	render(w, evaluate(addresses, opts), opts.German)
	return nil
}
