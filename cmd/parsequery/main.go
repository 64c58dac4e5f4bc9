// Command parsequery parses queries from the command line or stdin and
// prints their parse trees as JSON, one document per query.
//
// Usage:
//
//	go run ./cmd/parsequery [-config file] [-fix replacement] 'intitle:foo bar'
//	echo 'foo -bar' | go run ./cmd/parsequery
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/namespace"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/features"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/fixer"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "optional config file; defaults otherwise")
	fix := flag.String("fix", "", "splice this replacement into the fixable part")
	compact := flag.Bool("compact", false, "print one JSON document per line")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup("warn", "text")

	resolver := namespace.NewStatic(cfg.Namespaces.Names)
	registry, err := features.Registry(cfg.Parser.Features, resolver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building keyword registry: %v\n", err)
		os.Exit(1)
	}
	p, err := parser.New(parser.Config{
		QuestionMarkStripLevel:    parser.StripLevel(cfg.Parser.QuestionMarkStripLevel),
		QMarkExemptPrefixes:       cfg.Parser.QMarkExemptPrefixes,
		CaseInsensitiveNamespaces: cfg.Parser.CaseInsensitiveNamespaces,
		Language:                  cfg.Parser.Language,
		MaxQueryLength:            cfg.Parser.MaxQueryLength,
		LengthExemptKeywords:      cfg.Parser.LengthExemptKeywords,
	}, registry, parser.WithNamespaceResolver(resolver))
	if err != nil {
		fmt.Fprintf(os.Stderr, "building parser: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	if !*compact {
		enc.SetIndent("", "  ")
	}

	failed := false
	for _, q := range queries(flag.Args(), os.Stdin) {
		if err := printQuery(enc, p, q, *fix); err != nil {
			fmt.Fprintf(os.Stderr, "%q: %v\n", q, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func queries(args []string, stdin io.Reader) []string {
	if len(args) > 0 {
		return []string{strings.Join(args, " ")}
	}
	var out []string
	sc := bufio.NewScanner(stdin)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}

func printQuery(enc *json.Encoder, p *parser.Parser, q, replacement string) error {
	pq, err := p.Parse(q)
	if err != nil {
		return err
	}
	doc := pq.ToArray()
	if replacement != "" {
		fixed, err := fixer.New(pq).Fix(replacement)
		if err != nil {
			doc["fixed"] = nil
		} else {
			doc["fixed"] = fixed
		}
	}
	return enc.Encode(doc)
}
