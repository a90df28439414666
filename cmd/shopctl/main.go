// shopctl is a CLI for exercising UCP checkout flows against a merchant.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	shopctl discover -merchant URL
//	shopctl add -merchant URL [-id CHK] -item ID [-qty N]
//	shopctl get -merchant URL -id CHK
//	shopctl remove -merchant URL -id CHK -item ID
//	shopctl qty -merchant URL -id CHK -item ID -n N
//	shopctl details -merchant URL -id CHK -email ADDR [-first NAME] [-last NAME] [-street S] [-city C] [-region R] [-country CC] [-zip Z]
//	shopctl pay -merchant URL -id CHK
//	shopctl complete -merchant URL -id CHK [-handler ID] [-token TOK]
//	shopctl cancel -merchant URL -id CHK
//	shopctl order -merchant URL -order-id ORD
//	shopctl search -catalog FILE -query Q
//	shopctl prompt [-schema] [-examples]
//
// Examples:
//
//	shopctl discover -merchant http://localhost:8182
//	ID=$(shopctl add -merchant http://localhost:8182 -item sku_mug -qty 2 -q)
//	shopctl details -merchant http://localhost:8182 -id $ID -email a@b.com -street "1 Main St" -city NYC -region NY -country US -zip 10001
//	shopctl complete -merchant http://localhost:8182 -id $ID
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"ucp-agent/internal/a2ui"
	"ucp-agent/internal/catalog"
	"ucp-agent/internal/config"
	"ucp-agent/internal/discovery"
	"ucp-agent/internal/model"
	"ucp-agent/internal/session"
	"ucp-agent/internal/transport"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "discover":
		err = runDiscover(args)
	case "add":
		err = runAdd(args)
	case "get":
		err = runGet(args)
	case "remove":
		err = runRemove(args)
	case "qty":
		err = runQty(args)
	case "details":
		err = runDetails(args)
	case "pay":
		err = runPay(args)
	case "complete":
		err = runComplete(args)
	case "cancel":
		err = runCancel(args)
	case "order":
		err = runOrder(args)
	case "search":
		err = runSearch(args)
	case "prompt":
		err = runPrompt(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `shopctl - UCP checkout agent CLI

Usage: shopctl <command> [flags]

Commands:
  discover   Fetch and print the merchant's negotiated UCP profile
  add        Add an item to a checkout (creates one when -id is omitted)
  get        Print the current state of a checkout
  remove     Remove an item from a checkout
  qty        Set an item's quantity (0 removes it)
  details    Submit buyer email and shipping address, negotiate shipping
  pay        Report whether the checkout is ready for completion
  complete   Complete the checkout and place the order
  cancel     Cancel the checkout
  order      Look up a completed order
  search     Search a local product catalog file
  prompt     Print the A2UI system prompt

Run 'shopctl <command> -h' for command flags.
`)
}

// commonFlags holds flags shared by the merchant-facing commands.
type commonFlags struct {
	merchant string
	id       string
	quiet    bool
	verbose  bool
}

func registerCommon(fs *flag.FlagSet, cf *commonFlags) {
	fs.StringVar(&cf.merchant, "merchant", os.Getenv("MERCHANT_URL"), "merchant base URL (or MERCHANT_URL)")
	fs.StringVar(&cf.id, "id", "", "checkout id")
	fs.BoolVar(&cf.quiet, "q", false, "print only the checkout id")
	fs.BoolVar(&cf.verbose, "v", false, "debug logging")
}

// newSession builds the transport and session for one command invocation.
func newSession(cf *commonFlags) (*session.Session, error) {
	if cf.merchant == "" {
		return nil, fmt.Errorf("-merchant flag or MERCHANT_URL required")
	}
	level := slog.LevelWarn
	if cf.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client, err := transport.New(transport.Config{
		MerchantURL: cf.merchant,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	sess := session.New(client, os.Getenv("CURRENCY"), logger)
	if cf.id != "" {
		sess.Resume(cf.id)
	}
	return sess, nil
}

// Per-request timeouts live in the transport; commands are short-lived.
func ctx() context.Context {
	return context.Background()
}

// printCheckout writes the checkout as indented JSON, or just its id with -q.
func printCheckout(checkout *model.Checkout, quiet bool) error {
	if quiet {
		fmt.Println(checkout.ID)
		return nil
	}
	return printJSON(checkout)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runDiscover(args []string) error {
	var cf commonFlags
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	registerCommon(fs, &cf)
	fs.Parse(args)

	if cf.merchant == "" {
		return fmt.Errorf("-merchant flag or MERCHANT_URL required")
	}
	client, err := transport.New(transport.Config{MerchantURL: cf.merchant})
	if err != nil {
		return err
	}
	defer client.Close()

	neg := discovery.New(client, config.DefaultAgentCapabilities(), nil)
	meta, err := neg.NegotiatedMetadata(ctx())
	if err != nil {
		return err
	}
	return printJSON(meta)
}

func runAdd(args []string) error {
	var cf commonFlags
	var item string
	var qty int
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	registerCommon(fs, &cf)
	fs.StringVar(&item, "item", "", "product id (required)")
	fs.IntVar(&qty, "qty", 1, "quantity to add")
	fs.Parse(args)

	if item == "" {
		return fmt.Errorf("-item is required")
	}
	sess, err := newSession(&cf)
	if err != nil {
		return err
	}
	defer sess.Close()

	checkout, err := sess.AddToCheckout(ctx(), item, qty)
	if err != nil {
		return err
	}
	return printCheckout(checkout, cf.quiet)
}

func runGet(args []string) error {
	var cf commonFlags
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	registerCommon(fs, &cf)
	fs.Parse(args)

	if cf.id == "" {
		return fmt.Errorf("-id is required")
	}
	sess, err := newSession(&cf)
	if err != nil {
		return err
	}
	defer sess.Close()

	checkout, err := sess.GetCheckout(ctx())
	if err != nil {
		return err
	}
	return printCheckout(checkout, cf.quiet)
}

func runRemove(args []string) error {
	var cf commonFlags
	var item string
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	registerCommon(fs, &cf)
	fs.StringVar(&item, "item", "", "product id to remove (required)")
	fs.Parse(args)

	if cf.id == "" || item == "" {
		return fmt.Errorf("-id and -item are required")
	}
	sess, err := newSession(&cf)
	if err != nil {
		return err
	}
	defer sess.Close()

	checkout, err := sess.RemoveFromCheckout(ctx(), item)
	if err != nil {
		return err
	}
	return printCheckout(checkout, cf.quiet)
}

func runQty(args []string) error {
	var cf commonFlags
	var item string
	var n int
	fs := flag.NewFlagSet("qty", flag.ExitOnError)
	registerCommon(fs, &cf)
	fs.StringVar(&item, "item", "", "product id (required)")
	fs.IntVar(&n, "n", 1, "new quantity (0 removes)")
	fs.Parse(args)

	if cf.id == "" || item == "" {
		return fmt.Errorf("-id and -item are required")
	}
	sess, err := newSession(&cf)
	if err != nil {
		return err
	}
	defer sess.Close()

	checkout, err := sess.UpdateQuantity(ctx(), item, n)
	if err != nil {
		return err
	}
	return printCheckout(checkout, cf.quiet)
}

func runDetails(args []string) error {
	var cf commonFlags
	var details session.CustomerDetails
	fs := flag.NewFlagSet("details", flag.ExitOnError)
	registerCommon(fs, &cf)
	fs.StringVar(&details.Email, "email", "", "buyer email (required)")
	fs.StringVar(&details.FirstName, "first", "", "first name")
	fs.StringVar(&details.LastName, "last", "", "last name")
	fs.StringVar(&details.StreetAddress, "street", "", "street address")
	fs.StringVar(&details.ExtendedAddress, "street2", "", "extended address")
	fs.StringVar(&details.City, "city", "", "city")
	fs.StringVar(&details.Region, "region", "", "state or region")
	fs.StringVar(&details.Country, "country", "", "two-letter country code")
	fs.StringVar(&details.PostalCode, "zip", "", "postal code")
	fs.Parse(args)

	if cf.id == "" || details.Email == "" {
		return fmt.Errorf("-id and -email are required")
	}
	sess, err := newSession(&cf)
	if err != nil {
		return err
	}
	defer sess.Close()

	checkout, err := sess.UpdateCustomerDetails(ctx(), details)
	if err != nil {
		return err
	}
	return printCheckout(checkout, cf.quiet)
}

func runPay(args []string) error {
	var cf commonFlags
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	registerCommon(fs, &cf)
	fs.Parse(args)

	if cf.id == "" {
		return fmt.Errorf("-id is required")
	}
	sess, err := newSession(&cf)
	if err != nil {
		return err
	}
	defer sess.Close()

	readiness, err := sess.StartPayment(ctx())
	if err != nil {
		return err
	}
	return printJSON(readiness)
}

func runComplete(args []string) error {
	var cf commonFlags
	var handler, token string
	fs := flag.NewFlagSet("complete", flag.ExitOnError)
	registerCommon(fs, &cf)
	fs.StringVar(&handler, "handler", "", "payment handler id (default: demo handler)")
	fs.StringVar(&token, "token", "", "payment token (default: demo token)")
	fs.Parse(args)

	if cf.id == "" {
		return fmt.Errorf("-id is required")
	}
	sess, err := newSession(&cf)
	if err != nil {
		return err
	}
	defer sess.Close()

	checkout, err := sess.CompleteCheckout(ctx(), handler, token)
	if err != nil {
		return err
	}
	if cf.quiet {
		fmt.Println(checkout.OrderID)
		return nil
	}
	return printJSON(checkout)
}

func runCancel(args []string) error {
	var cf commonFlags
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	registerCommon(fs, &cf)
	fs.Parse(args)

	if cf.id == "" {
		return fmt.Errorf("-id is required")
	}
	sess, err := newSession(&cf)
	if err != nil {
		return err
	}
	defer sess.Close()

	checkout, err := sess.CancelCheckout(ctx())
	if err != nil {
		return err
	}
	return printCheckout(checkout, cf.quiet)
}

func runOrder(args []string) error {
	var cf commonFlags
	var orderID string
	fs := flag.NewFlagSet("order", flag.ExitOnError)
	registerCommon(fs, &cf)
	fs.StringVar(&orderID, "order-id", "", "order id (required)")
	fs.Parse(args)

	if orderID == "" {
		return fmt.Errorf("-order-id is required")
	}
	sess, err := newSession(&cf)
	if err != nil {
		return err
	}
	defer sess.Close()

	order, err := sess.GetOrder(ctx(), orderID)
	if err != nil {
		return err
	}
	var pretty any
	if err := json.Unmarshal(order, &pretty); err != nil {
		fmt.Println(string(order))
		return nil
	}
	return printJSON(pretty)
}

func runSearch(args []string) error {
	var catalogPath, query string
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	fs.StringVar(&catalogPath, "catalog", os.Getenv("CATALOG_FILE"), "catalog JSON file (or CATALOG_FILE)")
	fs.StringVar(&query, "query", "", "search keywords")
	fs.Parse(args)

	if catalogPath == "" {
		return fmt.Errorf("-catalog flag or CATALOG_FILE required")
	}
	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return fmt.Errorf("reading catalog: %w", err)
	}
	var products []catalog.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return fmt.Errorf("parsing catalog: %w", err)
	}
	return printJSON(catalog.New(products).Search(query))
}

func runPrompt(args []string) error {
	var withSchema, withExamples bool
	fs := flag.NewFlagSet("prompt", flag.ExitOnError)
	fs.BoolVar(&withSchema, "schema", false, "include the A2UI JSON schema")
	fs.BoolVar(&withExamples, "examples", false, "include commerce UI examples")
	fs.Parse(args)

	fmt.Println(a2ui.SystemPrompt(a2ui.PromptOptions{
		IncludeSchema:   withSchema,
		IncludeExamples: withExamples,
	}))
	return nil
}
