package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/kitchen-buddy/backend/internal/model"
	"github.com/pageza/kitchen-buddy/backend/internal/service"
	"github.com/pageza/kitchen-buddy/backend/internal/testhelpers"
	"github.com/pageza/kitchen-buddy/backend/internal/types"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) ParseRecipe(ctx context.Context, text string) (*types.RecipeCreate, error) {
	args := m.Called(ctx, text)
	recipe, _ := args.Get(0).(*types.RecipeCreate)
	return recipe, args.Error(1)
}

func (m *mockLLM) ParseRecipeFromImage(ctx context.Context, image []byte, mediaType string) (*types.RecipeCreate, error) {
	args := m.Called(ctx, image, mediaType)
	recipe, _ := args.Get(0).(*types.RecipeCreate)
	return recipe, args.Error(1)
}

func (m *mockLLM) GetRecipeSuggestions(ctx context.Context, query string, available []string) (string, error) {
	args := m.Called(ctx, query, available)
	return args.String(0), args.Error(1)
}

func strPtr(s string) *string     { return &s }
func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func omelette(ingredients ...string) *types.RecipeCreate {
	in := &types.RecipeCreate{
		Name:            "Omelette",
		CuisineType:     strPtr("French"),
		PreparationTime: intPtr(5),
		CookingTime:     intPtr(5),
		DifficultyLevel: strPtr("Easy"),
		TasteProfile:    strPtr("savory"),
		Instructions:    "Whisk the eggs and cook gently.",
		Ingredients:     []types.RecipeIngredientInput{},
	}
	for _, name := range ingredients {
		in.Ingredients = append(in.Ingredients, types.RecipeIngredientInput{IngredientName: name, Quantity: floatPtr(1), Unit: "pcs"})
	}
	return in
}

func setupRecipeService(t *testing.T) (*service.RecipeService, *gorm.DB, *mockLLM) {
	t.Helper()
	db := testhelpers.NewSQLiteDB(t)
	llm := &mockLLM{}
	return service.NewRecipeService(db, llm), db, llm
}

func TestRecipeService_CreateRecipe(t *testing.T) {
	svc, db, _ := setupRecipeService(t)
	ctx := context.Background()
	userID := uuid.New()

	t.Run("should initialise rating and attach ingredients", func(t *testing.T) {
		recipe, err := svc.CreateRecipe(ctx, omelette("egg", "butter"), userID)
		require.NoError(t, err)

		assert.NotZero(t, recipe.ID)
		assert.Equal(t, 0.0, recipe.AverageRating)
		assert.Equal(t, 0, recipe.NumberOfReviews)
		assert.Equal(t, userID, recipe.UserID)
		assert.False(t, recipe.CreatedAt.IsZero())
		_, err = uuid.Parse(recipe.VectorStoreID)
		assert.NoError(t, err)

		require.Len(t, recipe.Ingredients, 2)
		for _, ing := range recipe.Ingredients {
			assert.Equal(t, recipe.ID, ing.RecipeID)
		}
		assert.Nil(t, recipe.Embedding)
	})

	t.Run("should generate distinct vector store ids", func(t *testing.T) {
		a, err := svc.CreateRecipe(ctx, omelette(), userID)
		require.NoError(t, err)
		b, err := svc.CreateRecipe(ctx, omelette(), userID)
		require.NoError(t, err)
		assert.NotEqual(t, a.VectorStoreID, b.VectorStoreID)
	})

	t.Run("should reject recipes without a name", func(t *testing.T) {
		in := omelette("egg")
		in.Name = " "
		_, err := svc.CreateRecipe(ctx, in, userID)
		assert.True(t, errors.Is(err, service.ErrValidation))
	})

	t.Run("should reject ingredient lines without a quantity", func(t *testing.T) {
		in := omelette("egg")
		in.Ingredients[0].Quantity = nil
		_, err := svc.CreateRecipe(ctx, in, userID)
		assert.True(t, errors.Is(err, service.ErrValidation))
	})

	t.Run("should roll back the recipe when ingredients fail", func(t *testing.T) {
		tx := db.Session(&gorm.Session{NewDB: true})
		failing := service.NewRecipeService(tx, nil)
		err := tx.Callback().Create().Before("gorm:create").Register("test:fail_links", func(d *gorm.DB) {
			if d.Statement.Table == "recipe_ingredients" {
				_ = d.AddError(errors.New("disk full"))
			}
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = tx.Callback().Create().Remove("test:fail_links") })

		otherUser := uuid.New()
		_, err = failing.CreateRecipe(ctx, omelette("egg"), otherUser)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to add recipe ingredients")

		var count int64
		require.NoError(t, db.Model(&model.Recipe{}).Where("user_id = ?", otherUser).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestRecipeService_GetRecipe(t *testing.T) {
	svc, _, _ := setupRecipeService(t)
	ctx := context.Background()
	owner, stranger := uuid.New(), uuid.New()

	created, err := svc.CreateRecipe(ctx, omelette("egg", "milk"), owner)
	require.NoError(t, err)

	t.Run("should return the recipe with ingredients", func(t *testing.T) {
		got, err := svc.GetRecipe(ctx, created.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, "Omelette", got.Name)
		require.Len(t, got.Ingredients, 2)
		assert.Equal(t, "egg", got.Ingredients[0].IngredientName)
		assert.Equal(t, "milk", got.Ingredients[1].IngredientName)
	})

	t.Run("should hide other users' recipes", func(t *testing.T) {
		_, err := svc.GetRecipe(ctx, created.ID, stranger)
		assert.True(t, errors.Is(err, service.ErrNotFound))
		assert.EqualError(t, err, "Recipe not found")
	})

	t.Run("should report missing ids as not found", func(t *testing.T) {
		_, err := svc.GetRecipe(ctx, created.ID+100, owner)
		assert.True(t, errors.Is(err, service.ErrNotFound))
	})
}

func TestRecipeService_GetRecipes(t *testing.T) {
	svc, _, _ := setupRecipeService(t)
	ctx := context.Background()
	owner := uuid.New()

	t.Run("should return an empty list", func(t *testing.T) {
		recipes, err := svc.GetRecipes(ctx, owner)
		require.NoError(t, err)
		assert.NotNil(t, recipes)
		assert.Empty(t, recipes)
	})

	t.Run("should only list the caller's recipes", func(t *testing.T) {
		_, err := svc.CreateRecipe(ctx, omelette("egg"), owner)
		require.NoError(t, err)
		_, err = svc.CreateRecipe(ctx, omelette("egg"), uuid.New())
		require.NoError(t, err)

		recipes, err := svc.GetRecipes(ctx, owner)
		require.NoError(t, err)
		require.Len(t, recipes, 1)
		assert.Len(t, recipes[0].Ingredients, 1)
	})
}

func TestRecipeService_SearchRecipes(t *testing.T) {
	svc, _, _ := setupRecipeService(t)
	ctx := context.Background()
	owner := uuid.New()

	_, err := svc.CreateRecipe(ctx, omelette("egg"), owner)
	require.NoError(t, err)
	soup := &types.RecipeCreate{
		Name:         "Tomato Soup",
		Instructions: "Simmer tomatoes.",
		Ingredients:  []types.RecipeIngredientInput{{IngredientName: "Basil", Quantity: floatPtr(5), Unit: "leaves"}},
	}
	_, err = svc.CreateRecipe(ctx, soup, owner)
	require.NoError(t, err)
	_, err = svc.CreateRecipe(ctx, soup, uuid.New())
	require.NoError(t, err)

	t.Run("should match names case-insensitively", func(t *testing.T) {
		recipes, err := svc.SearchRecipes(ctx, owner, "SOUP")
		require.NoError(t, err)
		require.Len(t, recipes, 1)
		assert.Equal(t, "Tomato Soup", recipes[0].Name)
	})

	t.Run("should match ingredient names", func(t *testing.T) {
		recipes, err := svc.SearchRecipes(ctx, owner, "basil")
		require.NoError(t, err)
		require.Len(t, recipes, 1)
		assert.Equal(t, "Tomato Soup", recipes[0].Name)
	})

	t.Run("should list everything for a blank query", func(t *testing.T) {
		recipes, err := svc.SearchRecipes(ctx, owner, "  ")
		require.NoError(t, err)
		assert.Len(t, recipes, 2)
	})
}

func TestRecipeService_UpdateRecipe(t *testing.T) {
	svc, db, _ := setupRecipeService(t)
	ctx := context.Background()
	owner, stranger := uuid.New(), uuid.New()

	created, err := svc.CreateRecipe(ctx, omelette("egg", "milk"), owner)
	require.NoError(t, err)

	t.Run("should replace the ingredient list", func(t *testing.T) {
		in := omelette("cheese")
		in.Name = "Cheese Omelette"
		in.CuisineType = nil

		updated, err := svc.UpdateRecipe(ctx, created.ID, in, owner)
		require.NoError(t, err)
		assert.Equal(t, "Cheese Omelette", updated.Name)
		assert.Nil(t, updated.CuisineType)
		assert.Equal(t, created.VectorStoreID, updated.VectorStoreID)
		require.Len(t, updated.Ingredients, 1)
		assert.Equal(t, "cheese", updated.Ingredients[0].IngredientName)

		var links int64
		require.NoError(t, db.Model(&model.RecipeIngredient{}).Where("recipe_id = ?", created.ID).Count(&links).Error)
		assert.Equal(t, int64(1), links)
	})

	t.Run("should refuse other users", func(t *testing.T) {
		_, err := svc.UpdateRecipe(ctx, created.ID, omelette(), stranger)
		assert.True(t, errors.Is(err, service.ErrNotFound))

		got, err := svc.GetRecipe(ctx, created.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, "Cheese Omelette", got.Name)
		assert.Len(t, got.Ingredients, 1)
	})
}

func TestRecipeService_DeleteRecipe(t *testing.T) {
	svc, db, _ := setupRecipeService(t)
	ctx := context.Background()
	owner, stranger := uuid.New(), uuid.New()

	created, err := svc.CreateRecipe(ctx, omelette("egg", "milk"), owner)
	require.NoError(t, err)

	t.Run("should refuse other users", func(t *testing.T) {
		err := svc.DeleteRecipe(ctx, created.ID, stranger)
		assert.True(t, errors.Is(err, service.ErrNotFound))
	})

	t.Run("should cascade to ingredient lines", func(t *testing.T) {
		require.NoError(t, svc.DeleteRecipe(ctx, created.ID, owner))

		_, err := svc.GetRecipe(ctx, created.ID, owner)
		assert.True(t, errors.Is(err, service.ErrNotFound))

		var links int64
		require.NoError(t, db.Model(&model.RecipeIngredient{}).Where("recipe_id = ?", created.ID).Count(&links).Error)
		assert.Zero(t, links)
	})

	t.Run("should report repeated deletes as not found", func(t *testing.T) {
		err := svc.DeleteRecipe(ctx, created.ID, owner)
		assert.True(t, errors.Is(err, service.ErrNotFound))
	})
}

func TestRecipeService_GetRecipeSuggestions(t *testing.T) {
	svc, db, llm := setupRecipeService(t)
	ctx := context.Background()
	owner := uuid.New()

	for _, name := range []string{"egg", "milk"} {
		require.NoError(t, db.Create(&model.Ingredient{Name: name, Quantity: 1, Unit: "pcs", UserID: owner}).Error)
	}
	require.NoError(t, db.Create(&model.Ingredient{Name: "caviar", Quantity: 1, Unit: "jar", UserID: uuid.New()}).Error)

	t.Run("should pass the caller's pantry to the model", func(t *testing.T) {
		llm.On("GetRecipeSuggestions", mock.Anything, "breakfast ideas", []string{"egg", "milk"}).
			Return("Try pancakes.", nil).Once()

		out, err := svc.GetRecipeSuggestions(ctx, "breakfast ideas", owner)
		require.NoError(t, err)
		assert.Equal(t, "Try pancakes.", out)
		llm.AssertExpectations(t)
	})

	t.Run("should surface model failures", func(t *testing.T) {
		llm.On("GetRecipeSuggestions", mock.Anything, "dinner", mock.Anything).
			Return("", errors.New("failed to get suggestions: timeout")).Once()

		_, err := svc.GetRecipeSuggestions(ctx, "dinner", owner)
		assert.EqualError(t, err, "failed to get suggestions: timeout")
	})
}

func TestRecipeService_SearchRecipesPostgres(t *testing.T) {
	db := testhelpers.SetupPostgres(t)
	svc := service.NewRecipeService(db, nil)
	ctx := context.Background()
	owner := uuid.New()

	soup := &types.RecipeCreate{
		Name:         "Tomato Soup",
		Instructions: "Simmer tomatoes with basil.",
		Ingredients:  []types.RecipeIngredientInput{{IngredientName: "tomato", Quantity: floatPtr(4), Unit: "pcs"}},
	}
	cake := &types.RecipeCreate{
		Name:         "Chocolate Cake",
		Instructions: "Bake the batter.",
		Ingredients:  []types.RecipeIngredientInput{{IngredientName: "cocoa", Quantity: floatPtr(50), Unit: "g"}},
	}
	_, err := svc.CreateRecipe(ctx, cake, owner)
	require.NoError(t, err)
	created, err := svc.CreateRecipe(ctx, soup, owner)
	require.NoError(t, err)
	require.NotNil(t, created.Embedding)

	t.Run("should rank the closest recipe first", func(t *testing.T) {
		recipes, err := svc.SearchRecipes(ctx, owner, "tomato soup")
		require.NoError(t, err)
		require.Len(t, recipes, 2)
		assert.Equal(t, "Tomato Soup", recipes[0].Name)
		assert.Len(t, recipes[0].Ingredients, 1)
	})

	t.Run("should cascade deletes", func(t *testing.T) {
		require.NoError(t, svc.DeleteRecipe(ctx, created.ID, owner))
		var links int64
		require.NoError(t, db.Model(&model.RecipeIngredient{}).Where("recipe_id = ?", created.ID).Count(&links).Error)
		assert.Zero(t, links)
	})
}
