package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gramdb/pkg/logger"
	"gramdb/pkg/state"
)

func main() {
	var p string
	var data string
	flag.StringVar(&p, "path", "", "audit dir path to attach")
	flag.StringVar(&data, "data", "", "data dir; audit path is derived from its state layout")
	flag.Parse()
	if p == "" && data != "" {
		p = state.PathsFor(data).Audit
	}
	if p == "" {
		fmt.Fprintln(os.Stderr, "--path or --data required")
		os.Exit(2)
	}
	logger.Init("")
	defer logger.Sync()
	fmt.Fprintf(os.Stdout, "calling AttachAuditFileSink(%s)\n", p)
	if err := logger.AttachAuditFileSink(p); err != nil {
		fmt.Fprintf(os.Stdout, "AttachAuditFileSink returned error: %v\n", err)
		os.Exit(1)
	}
	// print where audit.log would be
	f := filepath.Join(p, "audit.log")
	fmt.Fprintf(os.Stdout, "AttachAuditFileSink succeeded; audit file path: %s\n", f)
}
