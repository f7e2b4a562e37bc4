package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pageza/kitchen-buddy/backend/internal/types"
)

const jsonOnlyInstruction = "Respond with a single JSON object only. No markdown, no commentary."

const parserSystemPrompt = `You are a meticulous recipe editor. You turn unstructured recipe text into structured data and answer in JSON only.`

const recipeFormatInstructions = `Return a JSON object with exactly this structure:
{
    "name": "Recipe name",
    "cuisine_type": "Cuisine, e.g. Italian (or null)",
    "preparation_time": 15,
    "cooking_time": 30,
    "ingredients": [
        {"ingredient_name": "flour", "quantity": 2, "unit": "cups"}
    ],
    "instructions": "Full step-by-step instructions as one text",
    "difficulty_level": "Easy, Medium or Hard (or null)",
    "taste_profile": "e.g. sweet, savory, spicy (or null)"
}

preparation_time and cooking_time are whole minutes. quantity is a number.`

const recipePromptTemplate = `Extract structured recipe information from the following text.
Pay special attention to quantities, units, and ingredient lists.

Text: %s

Requirements:
1. Extract recipe name
2. Identify cuisine type if mentioned
3. Get preparation and cooking times
4. List all ingredients with their quantities and units
5. Extract detailed instructions
6. Determine difficulty level
7. Identify taste profile (sweet, savory, spicy, etc.)

%s

If any field is not explicitly mentioned in the text, use reasonable defaults based on the recipe context.
Make sure all ingredients mentioned in instructions are included in the ingredients list.`

const enrichmentPromptTemplate = `Review this recipe and add the missing information:
%s

Add:
1. Reasonable time estimates if missing
2. Difficulty level based on steps
3. Taste profile based on ingredients
4. Cuisine type based on ingredients and style

Only these fields are missing: %s.
Return a JSON object containing only those fields, using the keys cuisine_type, preparation_time, cooking_time, difficulty_level and taste_profile. Times are whole minutes.`

const transcriptionPrompt = `This image shows a recipe, for example a cookbook page, a handwritten card or a screenshot.
Transcribe the complete recipe text: title, ingredient list with quantities and units, timings and every instruction step.
Reply with the transcribed text only. If the image does not contain a recipe, reply with an empty message.`

const suggestionPromptTemplate = `Based on these available ingredients: %s
And the user's request: %s

Suggest suitable recipes following these rules:
1. Prioritize recipes where most ingredients are available
2. For each suggested recipe:
   - List which available ingredients can be used
   - Specify what additional ingredients are needed
   - Explain why this recipe matches the user's request
3. If the user has dietary preferences in their request, respect them
4. Include preparation time and difficulty level

Format suggestions clearly with bullet points and sections.`

func buildRecipePrompt(text string) string {
	return fmt.Sprintf(recipePromptTemplate, text, recipeFormatInstructions)
}

func buildEnrichmentPrompt(recipe *types.RecipeCreate, missing []string) string {
	data, err := json.MarshalIndent(recipe, "", "  ")
	if err != nil {
		data = []byte(recipe.Name)
	}
	return fmt.Sprintf(enrichmentPromptTemplate, string(data), strings.Join(missing, ", "))
}

func buildSuggestionPrompt(query string, availableIngredients []string) string {
	return fmt.Sprintf(suggestionPromptTemplate, strings.Join(availableIngredients, ", "), query)
}
