package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"finreport_analyzer/pkg/core/agent"
	"finreport_analyzer/pkg/core/logging"
	"finreport_analyzer/pkg/core/pipeline"
	"finreport_analyzer/pkg/core/prompt"
	"finreport_analyzer/pkg/core/settings"
	"finreport_analyzer/pkg/core/store"
	"finreport_analyzer/pkg/core/utils"

	"github.com/joho/godotenv"
)

func main() {
	file := flag.String("file", "", "statement document (.pdf, .xlsx, .html, .txt)")
	metricsFile := flag.String("metrics", "", "JSON or HJSON object of label -> value, instead of -file")
	llmMode := flag.String("llm", "", "off | sections | structured (default from FINREPORT_LLM_MODE)")
	extraction := flag.String("extraction", "", "auto | tables | text (default from FINREPORT_EXTRACTION)")
	strict := flag.Bool("strict", false, "reject documents where two labels map to the same field")
	asJSON := flag.Bool("json", false, "print the full result as JSON")
	save := flag.Bool("save", false, "persist the report under FINREPORT_REPORT_DIR")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not found, assuming environment variables are set.")
	}

	cfg, err := settings.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logging.New(cfg.Level, "console")

	if (*file == "") == (*metricsFile == "") {
		fmt.Fprintln(os.Stderr, "usage: pipeline -file <document> | -metrics <file.json>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	pcfg := cfg.Pipeline()
	if *llmMode != "" {
		pcfg.LLM = pipeline.LLMMode(*llmMode)
	}
	if *extraction != "" {
		pcfg.Extraction = pipeline.ExtractionMode(*extraction)
	}
	pcfg.Strict = pcfg.Strict || *strict

	if _, err := os.Stat(cfg.Paths.Prompts); err == nil {
		if err := prompt.LoadFromDirectory(cfg.Paths.Prompts); err != nil {
			log.Warn().Err(err).Msg("failed to load prompt library, using built-in prompts")
		}
	}

	var opts []pipeline.Option
	if pcfg.LLM != pipeline.LLMOff {
		agentCfg, err := settings.LoadModels(cfg.Paths.Models)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load model routing")
		}
		opts = append(opts, pipeline.WithLLM(agent.NewManager(agentCfg, log)))
	}
	if *save {
		repo, err := store.NewFileReportRepo(cfg.ReportDir)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open report directory")
		}
		opts = append(opts, pipeline.WithRepository(repo))
	}
	orch := pipeline.New(pcfg, log, opts...)

	ctx := context.Background()
	var (
		res    *pipeline.Result
		runErr error
	)
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read document")
		}
		res, runErr = orch.RunDocument(ctx, filepath.Base(*file), data)
	} else {
		raw, err := os.ReadFile(*metricsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read metrics")
		}
		var metrics map[string]float64
		if _, err := utils.SmartParse(string(raw), &metrics); err != nil {
			log.Fatal().Err(err).Msg("failed to parse metrics")
		}
		res, runErr = orch.RunMetrics(ctx, metrics)
	}
	if runErr != nil {
		log.Fatal().Err(runErr).Msg("analysis failed")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(res); err != nil {
			log.Fatal().Err(err).Msg("failed to encode result")
		}
		return
	}

	fmt.Println(res.Summary)
	fmt.Println()
	fmt.Println(res.Rendered)
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if res.ID != "" {
		fmt.Fprintf(os.Stderr, "saved as %s\n", res.ID)
	}
}
