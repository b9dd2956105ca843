// Command lsproxy-worker is the per-language worker process (§4.E): it
// starts one language server as a child process, multiplexes LSP requests
// over it, and exposes the worker's HTTP surface. The orchestrator spawns
// one container running this binary per detected language.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nuanced-dev/lsproxy/pkg/lspmux"
	"github.com/nuanced-dev/lsproxy/pkg/worker"
)

// lspArgs collects repeated -lsp-arg flags into the language server's
// argv, in the order given on the command line.
type lspArgs []string

func (a *lspArgs) String() string { return strings.Join(*a, " ") }

func (a *lspArgs) Set(v string) error {
	*a = append(*a, v)
	return nil
}

func main() {
	lspCommand := flag.String("lsp-command", "", "language server executable (required)")
	var extraArgs lspArgs
	flag.Var(&extraArgs, "lsp-arg", "argument to pass to the language server; repeatable")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s -lsp-command=<bin> [-lsp-arg=<arg>]...\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *lspCommand == "" {
		fmt.Fprintln(os.Stderr, "lsproxy-worker: -lsp-command is required")
		flag.Usage()
		os.Exit(2)
	}

	logLevel, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log := logrus.New()
	log.SetLevel(logLevel)
	log.SetFormatter(&logrus.JSONFormatter{})

	workspacePath := getEnv("WORKSPACE_PATH", "/mnt/workspace")
	port := getEnv("PORT", "8080")

	argv := append([]string{*lspCommand}, extraArgs...)
	mux := lspmux.New(argv, log)

	ctx := context.Background()
	if err := mux.Start(ctx, workspacePath); err != nil {
		log.WithError(err).Fatal("failed to start language server")
	}
	defer mux.Close()

	server := worker.NewServer(mux, workspacePath, log)

	addr := fmt.Sprintf(":%s", port)
	log.Infof("lsproxy-worker listening on %s (lsp-command=%s workspace=%s)", addr, *lspCommand, workspacePath)
	if err := http.ListenAndServe(addr, server); err != nil {
		log.WithError(err).Fatal("worker HTTP server failed")
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
