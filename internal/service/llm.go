package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pageza/kitchen-buddy/backend/config"
	"github.com/pageza/kitchen-buddy/backend/internal/types"
)

const (
	parserTemperature   = 0
	creativeTemperature = 0.7
)

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// LLMOptions selects the models used for each kind of call
type LLMOptions struct {
	// Model answers creative prompts: suggestions and enrichment
	Model string
	// ParserModel extracts structured recipes
	ParserModel string
	// VisionModel transcribes recipe images
	VisionModel string
	// Enrich fills fields the first extraction pass left empty
	Enrich bool
}

// LLMService builds prompts around recipe extraction and suggestions
type LLMService struct {
	completer Completer
	opts      LLMOptions
}

// NewLLMService creates a new LLMService instance
func NewLLMService(completer Completer, opts LLMOptions) *LLMService {
	return &LLMService{completer: completer, opts: opts}
}

// NewLLMServiceFromConfig wires the configured provider into an LLMService
func NewLLMServiceFromConfig(cfg *config.Config) (*LLMService, error) {
	opts := LLMOptions{
		Model:       cfg.LLMModel,
		ParserModel: cfg.LLMParserModel,
		VisionModel: cfg.LLMVisionModel,
		Enrich:      cfg.LLMEnrichRecipes,
	}

	switch cfg.LLMProvider {
	case "openai", "":
		return NewLLMService(NewChatClient(cfg.LLMAPIKey, cfg.LLMAPIURL, cfg.LLMTimeout), opts), nil
	case "anthropic":
		// the configured defaults are OpenAI model names
		opts.Model = anthropicModel(opts.Model, "claude-sonnet-4-5")
		opts.ParserModel = anthropicModel(opts.ParserModel, "claude-haiku-4-5")
		opts.VisionModel = anthropicModel(opts.VisionModel, "claude-sonnet-4-5")
		return NewLLMService(NewAnthropicClient(cfg.LLMAPIKey, cfg.LLMAPIURL, cfg.LLMTimeout), opts), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}

func anthropicModel(configured, fallback string) string {
	if configured == "" || strings.HasPrefix(configured, "gpt-") {
		return fallback
	}
	return configured
}

// ParseRecipe extracts a structured recipe from free text
func (s *LLMService) ParseRecipe(ctx context.Context, text string) (*types.RecipeCreate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("failed to parse recipe: %w: recipe text is empty", ErrValidation)
	}

	reply, err := s.completer.Complete(ctx, CompletionRequest{
		Model:       s.opts.ParserModel,
		System:      parserSystemPrompt,
		Prompt:      buildRecipePrompt(text),
		Temperature: parserTemperature,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}

	var parsed extractedRecipe
	if err := decodeJSONReply(reply, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}
	recipe, err := parsed.toRecipe()
	if err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}

	if s.opts.Enrich {
		s.enrichRecipe(ctx, recipe)
	}
	return recipe, nil
}

// enrichRecipe asks the creative model for the fields the parser left empty
// and merges them in. Failures leave the recipe untouched.
func (s *LLMService) enrichRecipe(ctx context.Context, recipe *types.RecipeCreate) {
	missing := missingRecipeFields(recipe)
	if len(missing) == 0 {
		return
	}

	reply, err := s.completer.Complete(ctx, CompletionRequest{
		Model:       s.opts.Model,
		Prompt:      buildEnrichmentPrompt(recipe, missing),
		Temperature: creativeTemperature,
		JSON:        true,
	})
	if err != nil {
		slog.Warn("recipe enrichment failed", "recipe", recipe.Name, "error", err)
		return
	}

	var extra extractedRecipe
	if err := decodeJSONReply(reply, &extra); err != nil {
		slog.Warn("recipe enrichment returned unusable output", "recipe", recipe.Name, "error", err)
		return
	}

	if recipe.CuisineType == nil {
		recipe.CuisineType = extra.CuisineType.ptr()
	}
	if recipe.PreparationTime == nil {
		recipe.PreparationTime = extra.PreparationTime.Value
	}
	if recipe.CookingTime == nil {
		recipe.CookingTime = extra.CookingTime.Value
	}
	if recipe.DifficultyLevel == nil {
		recipe.DifficultyLevel = extra.DifficultyLevel.ptr()
	}
	if recipe.TasteProfile == nil {
		recipe.TasteProfile = extra.TasteProfile.joined(", ")
	}
}

// ParseRecipeFromImage transcribes a recipe image and parses the transcription
func (s *LLMService) ParseRecipeFromImage(ctx context.Context, image []byte, mediaType string) (*types.RecipeCreate, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("failed to parse recipe: %w: image is empty", ErrValidation)
	}
	mediaType = strings.ToLower(strings.TrimSpace(strings.Split(mediaType, ";")[0]))
	if !supportedImageTypes[mediaType] {
		return nil, fmt.Errorf("failed to parse recipe: %w: unsupported image type %q", ErrValidation, mediaType)
	}

	text, err := s.completer.Complete(ctx, CompletionRequest{
		Model:       s.opts.VisionModel,
		Prompt:      transcriptionPrompt,
		Image:       &ImageInput{Data: image, MediaType: mediaType},
		Temperature: parserTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("failed to parse recipe: no recipe text found in image")
	}

	return s.ParseRecipe(ctx, text)
}

// GetRecipeSuggestions returns the model's free-text suggestions verbatim
func (s *LLMService) GetRecipeSuggestions(ctx context.Context, query string, availableIngredients []string) (string, error) {
	reply, err := s.completer.Complete(ctx, CompletionRequest{
		Model:       s.opts.Model,
		Prompt:      buildSuggestionPrompt(query, availableIngredients),
		Temperature: creativeTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get suggestions: %w", err)
	}
	return reply, nil
}

func missingRecipeFields(r *types.RecipeCreate) []string {
	var missing []string
	if r.CuisineType == nil {
		missing = append(missing, "cuisine_type")
	}
	if r.PreparationTime == nil {
		missing = append(missing, "preparation_time")
	}
	if r.CookingTime == nil {
		missing = append(missing, "cooking_time")
	}
	if r.DifficultyLevel == nil {
		missing = append(missing, "difficulty_level")
	}
	if r.TasteProfile == nil {
		missing = append(missing, "taste_profile")
	}
	return missing
}

// decodeJSONReply decodes the JSON object embedded in a model reply,
// tolerating markdown fences or prose around it.
func decodeJSONReply(reply string, out any) error {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end <= start {
		return errors.New("no JSON object found in model response")
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), out); err != nil {
		return fmt.Errorf("invalid JSON in model response: %w", err)
	}
	return nil
}

// extractedRecipe is the loosely-typed shape models actually return
type extractedRecipe struct {
	Name            string                `json:"name"`
	CuisineType     optionalText          `json:"cuisine_type"`
	PreparationTime Minutes               `json:"preparation_time"`
	CookingTime     Minutes               `json:"cooking_time"`
	Ingredients     []extractedIngredient `json:"ingredients"`
	Instructions    textList              `json:"instructions"`
	DifficultyLevel optionalText          `json:"difficulty_level"`
	TasteProfile    textList              `json:"taste_profile"`
}

type extractedIngredient struct {
	IngredientName string   `json:"ingredient_name"`
	Name           string   `json:"name"`
	Quantity       Quantity `json:"quantity"`
	Unit           string   `json:"unit"`
}

func (e extractedRecipe) toRecipe() (*types.RecipeCreate, error) {
	recipe := &types.RecipeCreate{
		Name:            strings.TrimSpace(e.Name),
		CuisineType:     e.CuisineType.ptr(),
		PreparationTime: e.PreparationTime.Value,
		CookingTime:     e.CookingTime.Value,
		DifficultyLevel: e.DifficultyLevel.ptr(),
		TasteProfile:    e.TasteProfile.joined(", "),
		Ingredients:     []types.RecipeIngredientInput{},
	}
	if instructions := e.Instructions.joined("\n"); instructions != nil {
		recipe.Instructions = *instructions
	}

	for _, ing := range e.Ingredients {
		name := strings.TrimSpace(ing.IngredientName)
		if name == "" {
			name = strings.TrimSpace(ing.Name)
		}
		if name == "" {
			continue
		}
		quantity := float64(ing.Quantity)
		recipe.Ingredients = append(recipe.Ingredients, types.RecipeIngredientInput{
			IngredientName: name,
			Quantity:       &quantity,
			Unit:           strings.TrimSpace(ing.Unit),
		})
	}

	if recipe.Name == "" {
		return nil, errors.New("model returned a recipe without a name")
	}
	if recipe.Instructions == "" {
		return nil, errors.New("model returned a recipe without instructions")
	}
	return recipe, nil
}

// optionalText is a string that treats JSON null and blank values as absent
type optionalText string

func (t optionalText) ptr() *string {
	v := strings.TrimSpace(string(t))
	if v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, "unknown") {
		return nil
	}
	return &v
}

// textList accepts a string, a list of strings, or a list of step objects
// such as {"step": 1, "text": "..."}
type textList []string

func (t *textList) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*t = textList{str}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("invalid text format: %s", string(data))
	}
	list := make(textList, 0, len(items))
	for _, item := range items {
		text, err := stepText(item)
		if err != nil {
			return err
		}
		list = append(list, text)
	}
	*t = list
	return nil
}

var stepTextKeys = []string{"text", "instruction", "description", "step"}

func stepText(item json.RawMessage) (string, error) {
	var str string
	if err := json.Unmarshal(item, &str); err == nil {
		return str, nil
	}

	var obj map[string]any
	if err := json.Unmarshal(item, &obj); err != nil {
		return "", fmt.Errorf("invalid text format: %s", string(item))
	}
	for _, key := range stepTextKeys {
		if s, ok := obj[key].(string); ok {
			return s, nil
		}
	}
	return "", nil
}

func (t textList) joined(sep string) *string {
	parts := make([]string, 0, len(t))
	for _, p := range t {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	v := strings.Join(parts, sep)
	return &v
}

var durationPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)(?:\s*(?:-|to)\s*(\d+(?:\.\d+)?))?\s*([a-z]*)`)

// minutesPerUnit maps the unit words a duration may carry; a bare number is minutes
var minutesPerUnit = map[string]float64{
	"":        1,
	"m":       1,
	"min":     1,
	"mins":    1,
	"minute":  1,
	"minutes": 1,
	"h":       60,
	"hr":      60,
	"hrs":     60,
	"hour":    60,
	"hours":   60,
}

// Minutes can handle both numbers and strings such as "1 hour 15 minutes"
type Minutes struct {
	Value *int
}

func (m *Minutes) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		m.Value = nil
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		v := int(math.Round(num))
		m.Value = &v
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		m.Value = ParseMinutes(str)
		return nil
	}

	return fmt.Errorf("invalid duration format: %s", string(data))
}

// ParseMinutes reads a human duration; bare numbers are minutes and
// ranges such as "15-20 minutes" resolve to their upper bound
func ParseMinutes(s string) *int {
	matches := durationPattern.FindAllStringSubmatch(strings.ToLower(s), -1)
	if len(matches) == 0 {
		return nil
	}

	var total float64
	found := false
	for _, match := range matches {
		scale, ok := minutesPerUnit[match[3]]
		if !ok {
			continue
		}
		amount := match[1]
		if match[2] != "" {
			amount = match[2]
		}
		n, err := strconv.ParseFloat(amount, 64)
		if err != nil {
			continue
		}
		total += n * scale
		found = true
	}
	if !found {
		return nil
	}
	v := int(math.Round(total))
	return &v
}

// Quantity can handle numbers, numeric strings and fractions like "1 1/2"
type Quantity float64

func (q *Quantity) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*q = 0
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*q = Quantity(num)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*q = Quantity(parseQuantity(str))
		return nil
	}

	return fmt.Errorf("invalid quantity format: %s", string(data))
}

func parseQuantity(s string) float64 {
	var total float64
	for _, field := range strings.Fields(s) {
		if num, den, ok := strings.Cut(field, "/"); ok {
			n, err1 := strconv.ParseFloat(num, 64)
			d, err2 := strconv.ParseFloat(den, 64)
			if err1 == nil && err2 == nil && d != 0 {
				total += n / d
			}
			continue
		}
		if n, err := strconv.ParseFloat(field, 64); err == nil {
			total += n
		}
	}
	return total
}
