package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/pageza/kitchen-buddy/backend/config"
	"github.com/pageza/kitchen-buddy/backend/internal/database"
	"github.com/pageza/kitchen-buddy/backend/internal/logging"
	"github.com/pageza/kitchen-buddy/backend/internal/service"
	"github.com/pageza/kitchen-buddy/backend/internal/types"
)

func ptr[T any](v T) *T { return &v }

var pantry = []types.IngredientCreate{
	{Name: "egg", Quantity: ptr(12.0), Unit: "pcs", Category: ptr("dairy")},
	{Name: "milk", Quantity: ptr(1.0), Unit: "l", Category: ptr("dairy")},
	{Name: "butter", Quantity: ptr(250.0), Unit: "g", Category: ptr("dairy")},
	{Name: "flour", Quantity: ptr(1.0), Unit: "kg", Category: ptr("baking")},
	{Name: "sugar", Quantity: ptr(500.0), Unit: "g", Category: ptr("baking")},
	{Name: "tomato", Quantity: ptr(6.0), Unit: "pcs", Category: ptr("produce")},
	{Name: "onion", Quantity: ptr(3.0), Unit: "pcs", Category: ptr("produce")},
	{Name: "garlic", Quantity: ptr(1.0), Unit: "bulb", Category: ptr("produce")},
	{Name: "basil", Quantity: ptr(1.0), Unit: "bunch", Category: ptr("herbs")},
	{Name: "spaghetti", Quantity: ptr(500.0), Unit: "g", Category: ptr("pantry")},
	{Name: "olive oil", Quantity: ptr(500.0), Unit: "ml", Category: ptr("pantry")},
	{Name: "rice", Quantity: ptr(1.0), Unit: "kg", Category: ptr("pantry")},
}

var recipes = []types.RecipeCreate{
	{
		Name:            "Spaghetti al Pomodoro",
		CuisineType:     ptr("Italian"),
		PreparationTime: ptr(10),
		CookingTime:     ptr(20),
		DifficultyLevel: ptr("Easy"),
		TasteProfile:    ptr("savory, fresh"),
		Instructions:    "1. Boil the spaghetti.\n2. Soften garlic in olive oil, add chopped tomatoes and simmer.\n3. Toss with the pasta and torn basil.",
		Ingredients: []types.RecipeIngredientInput{
			{IngredientName: "spaghetti", Quantity: ptr(200.0), Unit: "g"},
			{IngredientName: "tomato", Quantity: ptr(4.0), Unit: "pcs"},
			{IngredientName: "garlic", Quantity: ptr(2.0), Unit: "cloves"},
			{IngredientName: "olive oil", Quantity: ptr(2.0), Unit: "tbsp"},
			{IngredientName: "basil", Quantity: ptr(5.0), Unit: "leaves"},
		},
	},
	{
		Name:            "Crepes",
		CuisineType:     ptr("French"),
		PreparationTime: ptr(10),
		CookingTime:     ptr(15),
		DifficultyLevel: ptr("Medium"),
		TasteProfile:    ptr("sweet"),
		Instructions:    "1. Whisk flour, eggs and milk into a thin batter.\n2. Rest for 10 minutes.\n3. Cook thin layers in a buttered pan.",
		Ingredients: []types.RecipeIngredientInput{
			{IngredientName: "flour", Quantity: ptr(125.0), Unit: "g"},
			{IngredientName: "egg", Quantity: ptr(2.0), Unit: "pcs"},
			{IngredientName: "milk", Quantity: ptr(300.0), Unit: "ml"},
			{IngredientName: "butter", Quantity: ptr(1.0), Unit: "tbsp"},
		},
	},
}

func main() {
	user := flag.String("user", "", "User id to seed (defaults to DEFAULT_USER_ID)")
	flag.Parse()

	if err := run(*user); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(user string) (err error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.NewLogger(cfg.LogLevel, cfg.LogFormat)

	if user == "" {
		user = cfg.DefaultUserID
	}
	userID, err := uuid.Parse(user)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", user, err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		err = errors.Join(err, database.Close(db))
	}()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	ctx := context.Background()
	ingredients := service.NewIngredientService(db)
	for i := range pantry {
		if _, err := ingredients.AddIngredient(ctx, &pantry[i], userID); err != nil {
			return fmt.Errorf("failed to seed ingredient %s: %w", pantry[i].Name, err)
		}
	}

	recipeService := service.NewRecipeService(db, nil)
	for i := range recipes {
		recipe, err := recipeService.CreateRecipe(ctx, &recipes[i], userID)
		if err != nil {
			return fmt.Errorf("failed to seed recipe %s: %w", recipes[i].Name, err)
		}
		slog.Info("seeded recipe", "id", recipe.ID, "name", recipe.Name)
	}

	slog.Info("seeding complete", "user_id", userID, "ingredients", len(pantry), "recipes", len(recipes))
	return nil
}
