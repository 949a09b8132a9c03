package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func init() {
	// Load .env file if present (silently ignore if missing)
	godotenv.Load()
}

var (
	// Config flags
	configPath  string
	outputDir   string
	cachePath   string
	noCache     bool
	serveAddr   string
	serveAPIKey string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "youtube-transcript",
		Short: "Fetch YouTube video transcripts as timestamped text files",
		Long: `A CLI tool that fetches a caption track for a YouTube video and writes
a transcript file with [MM:SS] timestamps, one line per caption entry.

The video is supplied either as a command argument or through a JSON
config file with "video_url" and/or "video_id" fields.`,
	}

	fetchCmd := &cobra.Command{
		Use:   "fetch [youtube-url-or-id]",
		Short: "Fetch a transcript and write transcript_<video_id>.txt",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFetch,
	}

	normalizeCmd := &cobra.Command{
		Use:   "normalize <transcript-file>",
		Short: "Regroup a transcript file into fixed 6-second intervals",
		Args:  cobra.ExactArgs(1),
		RunE:  runNormalize,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an HTTP API that fetches transcripts on demand",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "API key required from clients (default: from YTTRANSCRIPT_API_KEY env)")

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "Path to the JSON config file")
	rootCmd.PersistentFlags().StringVar(&outputDir, "out-dir", ".", "Directory transcript files are written to")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "transcripts.db", "Path to the sqlite transcript cache")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Disable the transcript cache")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func log(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "→ "+format+"\n", args...)
}

// openPipeline builds the shared pipeline for fetch and serve.
func openPipeline() *Pipeline {
	pipeline := &Pipeline{
		Fetcher: newFetcher(),
		OutDir:  outputDir,
	}

	if !noCache {
		cache, err := openCache(cachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: cache disabled: %v\n", err)
		} else {
			pipeline.Cache = cache
		}
	}

	return pipeline
}

func runFetch(cmd *cobra.Command, args []string) error {
	var cfg *Config
	if len(args) == 1 {
		cfg = &Config{VideoURL: args[0]}
	} else {
		log("Reading config from %s...", configPath)
		loaded, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	pipeline := openPipeline()
	if pipeline.Cache != nil {
		defer pipeline.Cache.Close()
	}

	log("Fetching transcript...")
	result, err := pipeline.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if result.Cached {
		log("Found cached transcript for %s", result.VideoID)
	} else {
		log("Fetched transcript for %s (%d chars)", result.VideoID, len(result.Transcript))
	}
	log("Saved transcript to %s", result.OutputPath)

	// Display on console
	fmt.Println(result.Transcript)
	return nil
}

func runNormalize(cmd *cobra.Command, args []string) error {
	path := args[0]

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read transcript file: %w", err)
	}

	normalized := normalizeTranscript(string(content))

	ext := filepath.Ext(path)
	outPath := strings.TrimSuffix(path, ext) + "_normalized" + ext
	if err := os.WriteFile(outPath, []byte(normalized), 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrFileWrite, err)
	}

	log("Normalized transcript saved to %s", outPath)
	fmt.Print(normalized)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	apiKey := getConfigValue(serveAPIKey, "YTTRANSCRIPT_API_KEY")

	pipeline := openPipeline()
	if pipeline.Cache != nil {
		defer pipeline.Cache.Close()
	}

	return startServer(serveAddr, apiKey, pipeline)
}

// getConfigValue returns flag value if set, otherwise env var
func getConfigValue(flagVal, envKey string) string {
	if flagVal != "" {
		return flagVal
	}
	return os.Getenv(envKey)
}
