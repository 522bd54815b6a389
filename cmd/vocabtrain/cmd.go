package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vocabtrain/vocabtrain/internal/errs"
	"github.com/vocabtrain/vocabtrain/internal/trainer"
	"github.com/vocabtrain/vocabtrain/internal/vocab"
	"github.com/vocabtrain/vocabtrain/internal/vocabio"
)

type optimizeArgs struct {
	inputTokens  string
	outputTokens string
	target       int
	fallback     string
	workers      int
	quiet        bool
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vocabtrain",
		Short: "Train a byte-level subword vocabulary against a corpus file",
		// main prints the single diagnostic line itself.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	var args optimizeArgs
	optimize := &cobra.Command{
		Use:   "optimize <corpus-file>",
		Short: "Grow and prune a token vocabulary to minimize encoded corpus cost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			return runOptimize(positional[0], args)
		},
	}
	optimize.Flags().StringVar(&args.inputTokens, "input-tokens", "", "existing boundary document to resume from (optional; omitted starts from a fresh preset vocabulary)")
	optimize.Flags().StringVar(&args.outputTokens, "output-tokens", "", "boundary document to write the trained vocabulary to (optional; omitted writes to stdout)")
	optimize.Flags().IntVar(&args.target, "target", 0, "target number of optional tokens beyond the literals and the preset's mandatory tokens")
	optimize.Flags().StringVar(&args.fallback, "fallback", "hex", "fallback preset when --input-tokens is not given: hex or bin")
	optimize.Flags().IntVar(&args.workers, "workers", 0, "parallel scan workers (0 = hardware parallelism)")
	optimize.Flags().BoolVar(&args.quiet, "quiet", false, "suppress per-epoch progress logging")

	root.AddCommand(optimize)
	return root
}

func runOptimize(corpusPath string, args optimizeArgs) error {
	ts, err := loadInitialTokens(args)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	opts := []trainer.Option{trainer.WithWorkers(args.workers)}
	tr := trainer.New(ts, corpusPath, args.target, opts...)
	if !args.quiet {
		start := time.Now()
		tr.Observer = func(epoch int, nTokens int, cost uint64, note string) {
			log.Printf("epoch %d (%s): ntokens=%d cost=%d elapsed=%s", epoch, note, nTokens, cost, time.Since(start).Round(time.Millisecond))
		}
		tr.Progress = func(scannedBytes uint64, elapsed time.Duration) {
			log.Printf("scanned %d bytes in %s", scannedBytes, elapsed.Round(time.Millisecond))
		}
	}

	trained, stats, err := tr.Run()
	if err != nil {
		if errors.Is(err, errs.ErrCorruptInput) {
			return fmt.Errorf("scan: %w", err)
		}
		return fmt.Errorf("trainer: %w", err)
	}

	if args.outputTokens == "" {
		data, err := vocabio.Marshal(trained, stats)
		if err != nil {
			return fmt.Errorf("save: %w", err)
		}
		if _, err := os.Stdout.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("save: %w", err)
		}
		return nil
	}

	if err := vocabio.Save(args.outputTokens, trained, stats); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func loadInitialTokens(args optimizeArgs) (*vocab.TokenSet, error) {
	if args.inputTokens != "" {
		return vocabio.Load(args.inputTokens)
	}

	preset := vocab.PresetBin
	if args.fallback == "hex" {
		preset = vocab.PresetHex
	} else if args.fallback != "bin" {
		return nil, fmt.Errorf("unknown fallback preset %q (want hex or bin)", args.fallback)
	}
	return vocab.New(preset), nil
}
