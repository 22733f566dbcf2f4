// mkfixture splits a JSON audit input into the Parquet + YAML layout the
// extraction pipeline produces, for exercising `billaudit audit --bill ...`.
// Usage: go run ./cmd/mkfixture --in testdata/case.json --out testdata/case
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gyeh/billaudit/internal/model"
	"github.com/gyeh/billaudit/internal/source"
)

func main() {
	in := flag.String("in", "testdata/case.json", "input JSON (.json or .json.gz)")
	out := flag.String("out", "testdata/case", "output directory")
	checkOnly := flag.Bool("check", false, "read back the fixture in --out and print stats, don't write")
	flag.Parse()

	billPath := filepath.Join(*out, "bill.parquet")
	authPath := filepath.Join(*out, "authorization.parquet")
	contractPath := filepath.Join(*out, "contract.yaml")

	if *checkOnly {
		input, err := source.LoadParquet(billPath, authPath, contractPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read fixture: %v\n", err)
			os.Exit(1)
		}
		printStats(input)
		return
	}

	input, err := source.LoadJSON(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		os.Exit(1)
	}
	if input.Config != nil {
		fmt.Fprintln(os.Stderr, "note: the config block is not part of the Parquet layout and was dropped")
	}
	for _, f := range input.Authorization.Folios {
		if len(f.Items) == 0 {
			fmt.Fprintf(os.Stderr, "note: folio %q has no lines and cannot be represented in Parquet\n", f.FolioID)
		}
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}

	billRows := make([]model.BillItemRow, len(input.Bill.Items))
	for i, item := range input.Bill.Items {
		billRows[i] = model.NewBillItemRow(item)
	}
	lines := input.Authorization.Lines()
	authRows := make([]model.AuthorizationRow, len(lines))
	for i, l := range lines {
		authRows[i] = model.NewAuthorizationRow(l)
	}

	if err := source.WriteParquet(billPath, billRows); err != nil {
		fmt.Fprintf(os.Stderr, "write bill: %v\n", err)
		os.Exit(1)
	}
	if err := source.WriteParquet(authPath, authRows); err != nil {
		fmt.Fprintf(os.Stderr, "write authorization: %v\n", err)
		os.Exit(1)
	}
	if err := source.WriteContract(contractPath, input.Contract); err != nil {
		fmt.Fprintf(os.Stderr, "write contract: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s, %s, %s\n", billPath, authPath, contractPath)
	printStats(input)
}

func printStats(in model.Input) {
	lines := in.Authorization.Lines()
	var copay model.Money
	for _, l := range lines {
		copay += l.PatientCopay
	}
	fmt.Printf("  %-14s %d\n", "bill items", len(in.Bill.Items))
	fmt.Printf("  %-14s %d\n", "folios", len(in.Authorization.Folios))
	fmt.Printf("  %-14s %d\n", "lines", len(lines))
	fmt.Printf("  %-14s %d\n", "rules", len(in.Contract.Rules))
	fmt.Printf("  %-14s %s\n", "patient copay", copay)
}
