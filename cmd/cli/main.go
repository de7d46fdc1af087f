package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/richard-senior/matchboard/internal/app"
	"github.com/richard-senior/matchboard/internal/config"
	"github.com/richard-senior/matchboard/internal/logger"
	"github.com/richard-senior/matchboard/internal/processor"
)

const version = "1.0.0"

func main() {
	// Parse command line flags
	debug := flag.Bool("debug", false, "Enable debug logging")
	inputFile := flag.String("input", "", "Input file path (if not provided, stdin will be used)")
	outputFile := flag.String("output", "", "Output file path (if not provided, stdout will be used)")
	timeout := flag.Duration("timeout", 10*time.Minute, "Give up on the tool call after this long")
	flag.Parse()

	// stdout carries the result
	logger.SetShowDateTime(true)
	if err := logger.SetLogOutput('f'); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *debug {
		logger.SetLevel(logger.DEBUG)
		logger.Debug("Debug logging enabled")
	}
	logger.Info("Starting matchboard CLI")

	// Determine input source
	var input []byte
	var err error
	if *inputFile != "" {
		input, err = os.ReadFile(*inputFile)
		if err != nil {
			logger.Fatal("Failed to read input file", err)
		}
	} else if args := flag.Args(); len(args) > 0 {
		// tool key=value ...
		request, err := processor.ParseQuery(args, fmt.Sprintf("cli-%d", os.Getpid()))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		input, err = json.Marshal(request)
		if err != nil {
			logger.Fatal("Failed to create request from command line arguments", err)
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			logger.Fatal("Failed to read from stdin", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration:", err)
	}
	a, err := app.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to open data:", err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := processor.New(a.Tools(), version).ProcessRequest(ctx, input)
	if err != nil {
		logger.Error("Failed to process request", err)
		a.Close()
		os.Exit(1)
	}

	// Determine output destination
	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, result, 0644); err != nil {
			logger.Error("Failed to write to output file", err)
			a.Close()
			os.Exit(1)
		}
	} else {
		fmt.Println(string(result))
	}

	logger.Info("matchboard CLI completed")
}
