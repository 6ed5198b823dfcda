package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/hobro-11/txutil/dynamostore"
	"github.com/hobro-11/txutil/txcommit"
	"github.com/hobro-11/txutil/txcommit/errors"
	"github.com/hobro-11/txutil/txcommit/types"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	cfg := dynamostore.ConfigFromEnv()

	fs := flag.NewFlagSet("txctl", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&cfg.TableName, "table", cfg.TableName, "table name")
	fs.StringVar(&cfg.Region, "region", cfg.Region, "AWS region")
	fs.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "DynamoDB endpoint override")
	fs.StringVar(&cfg.PKName, "pk", cfg.PKName, "partition key attribute")
	fs.StringVar(&cfg.SKName, "sk", cfg.SKName, "sort key attribute")
	fs.StringVar(&cfg.Sequence, "sequence", cfg.Sequence, "counter id for generated keys on create")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Usage = func() { printUsage(errOut) }

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		printUsage(errOut)
		return 2
	}
	if _, err := types.ParseVerb(fs.Arg(0)); err != nil {
		fmt.Fprintf(errOut, "unknown verb: %s\n\n", fs.Arg(0))
		printUsage(errOut)
		return 2
	}

	if *verbose {
		log.SetLevel(log.LevelDebug)
	} else {
		log.SetLevel(log.LevelError)
	}
	log.SetOutput(errOut)

	ctx := context.Background()
	client, err := dynamostore.NewClient(ctx, cfg)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	d := txcommit.New(dynamostore.New(client, cfg), txcommit.WithOutput(out))
	return dispatch(ctx, d, fs.Args(), out, errOut)
}

// dispatch resolves args[0] as a verb and runs it on the object built from
// the remaining key=value arguments. Exit status 1 means the change was
// rejected.
func dispatch(ctx context.Context, d *txcommit.Dispatcher, args []string, out io.Writer, errOut io.Writer) int {
	method, err := d.MethodByName(args[0])
	if err != nil {
		if ok, name := errors.IsUnknownVerb(err); ok {
			fmt.Fprintf(errOut, "unknown verb: %s\n\n", name)
			printUsage(errOut)
			return 2
		}
		fmt.Fprintln(errOut, err)
		return 2
	}

	obj, err := parseObject(args[1:])
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	res := method(ctx, obj)
	if args[0] != types.VerbGet.String() && !res.Accepted {
		return 1
	}
	return 0
}

func parseObject(args []string) (types.Object, error) {
	obj := types.Object{}
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid attribute %q, expected key=value", arg)
		}
		obj[k] = parseValue(v)
	}
	return obj, nil
}

func parseValue(v string) any {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: txctl [flags] <create|set|delete|get|rpc> key=value...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flags:")
	fmt.Fprintln(w, "  -table T       table name (TXUTIL_TABLE)")
	fmt.Fprintln(w, "  -region R      AWS region (TXUTIL_REGION)")
	fmt.Fprintln(w, "  -endpoint URL  DynamoDB endpoint override (TXUTIL_ENDPOINT)")
	fmt.Fprintln(w, "  -pk NAME       partition key attribute (TXUTIL_PK, default pk)")
	fmt.Fprintln(w, "  -sk NAME       sort key attribute (TXUTIL_SK)")
	fmt.Fprintln(w, "  -sequence ID   counter id for generated keys on create (TXUTIL_SEQUENCE)")
	fmt.Fprintln(w, "  -v             debug logging")
}
