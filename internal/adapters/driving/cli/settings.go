package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

var (
	embeddingModel        string
	embeddingBaseURL      string
	embeddingSkipValidate bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure chunking, duplicate detection, fusion weights,
search behaviour and the embedding provider.

Settings live in ~/.docsift/config.toml. API keys are never written there;
they are read from the environment.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Show default settings",
	RunE:  runSettingsDefaults,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a numeric or boolean setting",
	Long:  "Set one setting by key. Run without arguments to list the keys.",
	Args:  cobra.RangeArgs(0, 2),
	RunE:  runSettingsSet,
}

var settingsModeCmd = &cobra.Command{
	Use:   "mode [mode]",
	Short: "Set search mode",
	Long: `Set the default search mode.

Available modes:
  keyword  - Keyword search only (no setup required)
  semantic - Vector search only (requires embedding provider)
  hybrid   - Keyword and vector search fused (falls back to keyword)`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsMode,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding [provider]",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider for semantic search and semantic
duplicate detection. Providers: none, ollama, openai.

Without an argument an interactive prompt asks for the provider.`,
	Args: cobra.RangeArgs(0, 1),
	RunE: runSettingsEmbedding,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check settings for consistency",
	RunE:  runSettingsValidate,
}

func init() {
	settingsEmbeddingCmd.Flags().StringVar(&embeddingModel, "model", "", "embedding model (default per provider)")
	settingsEmbeddingCmd.Flags().StringVar(&embeddingBaseURL, "base-url", "", "API endpoint")
	settingsEmbeddingCmd.Flags().BoolVar(&embeddingSkipValidate, "skip-validate", false, "save without contacting the provider")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsDefaultsCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsModeCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	printSettings(cmd.OutOrStdout(), "Current Settings", settings)
	return nil
}

func runSettingsDefaults(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	defaults := settingsService.GetDefaults()
	printSettings(cmd.OutOrStdout(), "Default Settings", &defaults)
	return nil
}

func printSettings(w io.Writer, title string, s *domain.Settings) {
	p := newPainter(w)
	fmt.Fprintln(w, p.heading(title))
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Chunking]")
	fmt.Fprintf(w, "  Chunk size: %d chars\n", s.Chunking.ChunkSize)
	fmt.Fprintf(w, "  Overlap: %d chars\n", s.Chunking.Overlap)
	fmt.Fprintf(w, "  Min chunk length: %d chars\n", s.Chunking.MinChunkLength)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Duplicates]")
	fmt.Fprintf(w, "  Thresholds: duplicate %.2f, replace %.2f, skip %.2f\n",
		s.Dedup.DuplicateThreshold, s.Dedup.ReplaceThreshold, s.Dedup.SkipThreshold)
	fmt.Fprintf(w, "  Floors: filename %.2f, structural %.2f, semantic %.2f\n",
		s.Dedup.FilenameFloor, s.Dedup.StructuralFloor, s.Dedup.SemanticFloor)
	fmt.Fprintf(w, "  Semantic sample: %d chars\n", s.Dedup.SemanticSampleChars)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Fusion]")
	fmt.Fprintf(w, "  Weights: semantic %.2f, keyword %.2f\n", s.Fusion.Semantic, s.Fusion.Keyword)
	fmt.Fprintf(w, "  Corroboration bonus: %.2f\n", s.Fusion.CorroborationBonus)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Search]")
	fmt.Fprintf(w, "  Mode: %s\n", s.Search.Mode.Description())
	fmt.Fprintf(w, "  Max results: %d\n", s.Search.MaxResults)
	fmt.Fprintf(w, "  Similarity threshold: %.2f\n", s.Search.SimilarityThreshold)
	fmt.Fprintf(w, "  Query expansion: %t\n", s.Search.QueryExpansion)
	fmt.Fprintf(w, "  Timeout: %s\n", s.Search.Timeout)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Embedding]")
	fmt.Fprintf(w, "  Provider: %s\n", s.Embedding.Provider.Description())
	if s.Embedding.Provider != domain.AIProviderNone {
		fmt.Fprintf(w, "  Model: %s\n", s.Embedding.Model)
		if s.Embedding.BaseURL != "" {
			fmt.Fprintf(w, "  Base URL: %s\n", s.Embedding.BaseURL)
		}
	}
	if s.Embedding.Provider.RequiresAPIKey() {
		if s.Embedding.APIKey != "" {
			fmt.Fprintf(w, "  API Key: %s\n", maskAPIKey(s.Embedding.APIKey))
		} else {
			fmt.Fprintf(w, "  API Key: %s\n", p.warn("(not set)"))
		}
	}
	if s.Embedding.RequestsPerSecond > 0 {
		fmt.Fprintf(w, "  Rate limit: %.1f req/s\n", s.Embedding.RequestsPerSecond)
	}
	status := "configured"
	if !s.Embedding.IsConfigured() {
		status = "not configured"
	}
	fmt.Fprintf(w, "  Status: %s\n", status)
}

// settingSetter parses a value into one field of the settings.
type settingSetter func(s *domain.Settings, value string) error

func intSetter(field func(*domain.Settings) *int) settingSetter {
	return func(s *domain.Settings, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("want an integer: %w", err)
		}
		*field(s) = n
		return nil
	}
}

func floatSetter(field func(*domain.Settings) *float64) settingSetter {
	return func(s *domain.Settings, value string) error {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("want a number: %w", err)
		}
		*field(s) = f
		return nil
	}
}

func boolSetter(field func(*domain.Settings) *bool) settingSetter {
	return func(s *domain.Settings, value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("want true or false: %w", err)
		}
		*field(s) = b
		return nil
	}
}

var settingSetters = map[string]settingSetter{
	"chunking.chunk_size":           intSetter(func(s *domain.Settings) *int { return &s.Chunking.ChunkSize }),
	"chunking.overlap":              intSetter(func(s *domain.Settings) *int { return &s.Chunking.Overlap }),
	"chunking.min_chunk_length":     intSetter(func(s *domain.Settings) *int { return &s.Chunking.MinChunkLength }),
	"dedup.duplicate_threshold":     floatSetter(func(s *domain.Settings) *float64 { return &s.Dedup.DuplicateThreshold }),
	"dedup.replace_threshold":       floatSetter(func(s *domain.Settings) *float64 { return &s.Dedup.ReplaceThreshold }),
	"dedup.skip_threshold":          floatSetter(func(s *domain.Settings) *float64 { return &s.Dedup.SkipThreshold }),
	"dedup.filename_floor":          floatSetter(func(s *domain.Settings) *float64 { return &s.Dedup.FilenameFloor }),
	"dedup.structural_floor":        floatSetter(func(s *domain.Settings) *float64 { return &s.Dedup.StructuralFloor }),
	"dedup.semantic_floor":          floatSetter(func(s *domain.Settings) *float64 { return &s.Dedup.SemanticFloor }),
	"dedup.semantic_sample_chars":   intSetter(func(s *domain.Settings) *int { return &s.Dedup.SemanticSampleChars }),
	"fusion.semantic_weight":        floatSetter(func(s *domain.Settings) *float64 { return &s.Fusion.Semantic }),
	"fusion.keyword_weight":         floatSetter(func(s *domain.Settings) *float64 { return &s.Fusion.Keyword }),
	"fusion.corroboration_bonus":    floatSetter(func(s *domain.Settings) *float64 { return &s.Fusion.CorroborationBonus }),
	"search.max_results":            intSetter(func(s *domain.Settings) *int { return &s.Search.MaxResults }),
	"search.similarity_threshold":   floatSetter(func(s *domain.Settings) *float64 { return &s.Search.SimilarityThreshold }),
	"search.query_expansion":        boolSetter(func(s *domain.Settings) *bool { return &s.Search.QueryExpansion }),
	"embedding.requests_per_second": floatSetter(func(s *domain.Settings) *float64 { return &s.Embedding.RequestsPerSecond }),
}

func settingKeys() []string {
	keys := make([]string, 0, len(settingSetters))
	for k := range settingSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		for _, k := range settingKeys() {
			fmt.Fprintln(out, k)
		}
		return nil
	}
	if len(args) != 2 {
		return errors.New("usage: docsift settings set [key] [value]")
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	setter, ok := settingSetters[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (run 'docsift settings set' to list keys)", key)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := setter(settings, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Fprintf(out, "%s = %s\n", key, value)
	return nil
}

func runSettingsMode(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	mode := domain.SearchMode(args[0])
	if err := settingsService.SetSearchMode(mode); err != nil {
		return fmt.Errorf("failed to set mode: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Search mode set to: %s\n", mode.Description())
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var provider domain.AIProvider
	model, baseURL := embeddingModel, embeddingBaseURL
	if len(args) == 1 {
		provider = domain.AIProvider(args[0])
	} else {
		var err error
		provider, model, baseURL, err = promptEmbedding(cmd)
		if err != nil {
			return err
		}
	}
	if !provider.IsValid() {
		return fmt.Errorf("unknown provider %q (want none, ollama or openai)", provider)
	}

	if provider != domain.AIProviderNone && !embeddingSkipValidate && validateEmbedding != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Checking %s...\n", provider)
		if err := validateEmbedding(commandContext(cmd), string(provider), model, baseURL); err != nil {
			return fmt.Errorf("provider check failed: %w (use --skip-validate to save anyway)", err)
		}
	}

	if err := settingsService.SetEmbeddingProvider(provider, model, baseURL); err != nil {
		return fmt.Errorf("failed to set embedding provider: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Embedding provider set to: %s\n", provider.Description())
	return nil
}

// promptEmbedding asks for the provider, model and base URL.
func promptEmbedding(cmd *cobra.Command) (domain.AIProvider, string, string, error) {
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	providers := []domain.AIProvider{domain.AIProviderNone, domain.AIProviderOllama, domain.AIProviderOpenAI}
	fmt.Fprintln(out, "Embedding provider:")
	for i, p := range providers {
		fmt.Fprintf(out, "  %d) %s\n", i+1, p.Description())
	}
	fmt.Fprint(out, "Choice [1]: ")
	provider := providers[parseChoice(readLine(reader), len(providers), 1)-1]
	if provider == domain.AIProviderNone {
		return provider, "", "", nil
	}

	defaultModel := domain.DefaultEmbeddingModels()[provider]
	fmt.Fprintf(out, "Model [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	fmt.Fprint(out, "Base URL (empty for default): ")
	baseURL := readLine(reader)
	return provider, model, baseURL, nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Validate(); err != nil {
		return fmt.Errorf("settings are invalid: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Settings are valid.")
	return nil
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > maxVal {
		return defaultVal
	}
	return choice
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
