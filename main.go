package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"auramythos/config"
	"auramythos/generator"
	"auramythos/logx"
)

var (
	envFile   string
	appConfig config.Config
)

var rootCmd = &cobra.Command{
	Use:   "auramythos",
	Short: "Iterative story continuation service",
	Long: `AuraMythos continues a story one paragraph at a time.

Each call takes the writer's new input, the story so far and a format
(book, comic, screenplay), asks the language model for the next paragraph
and returns it with a follow-up question. Without an API key the service
runs in demo mode and answers with a canned continuation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envErr := config.LoadEnvFile(envFile)
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		appConfig = cfg
		logx.Init(logx.Options{Environment: cfg.Env()})
		if envErr != nil {
			if errors.Is(envErr, fs.ErrNotExist) {
				logx.Debug().Str("path", envFile).Msg("no env file, using process environment")
			} else {
				logx.Warn().Err(envErr).Str("path", envFile).Msg("failed to load env file")
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to a .env file loaded before reading configuration")
	rootCmd.AddCommand(serveCmd, continueCmd, writeCmd, formatsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildLLM picks the text generator for cfg. A nil client with a nil error
// means no usable credential was configured and the service runs in demo mode.
func buildLLM(cfg config.LLMConfig) (generator.LLMClient, error) {
	if cfg.Provider == "mock" {
		return &generator.MockLLM{}, nil
	}
	if !cfg.HasCredential() {
		return nil, nil
	}
	settings := &generator.LLMSettings{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Timeout:  cfg.Timeout,
	}
	switch cfg.Provider {
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek speaks the OpenAI chat API; only the endpoint differs.
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires OPENAI_BASE_URL (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}

func buildService(cfg config.LLMConfig) (*generator.Service, error) {
	llm, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}
	if llm == nil {
		logx.Warn().Str("provider", cfg.Provider).Msg("no usable API key configured, running in demo mode")
	} else {
		logx.Info().Str("provider", cfg.Provider).Str("model", cfg.Model).Msg("text generator configured")
	}
	return generator.NewService(llm,
		generator.WithProvider(cfg.Provider),
		generator.WithMaxTokens(cfg.MaxTokens),
		generator.WithTemperature(cfg.Temperature),
		generator.WithTimeout(cfg.Timeout),
	), nil
}

func defaultPolicy() (generator.ErrorPolicy, error) {
	return generator.ParseErrorPolicy(appConfig.LLM.OnGenerationError, generator.PolicyRaise)
}
