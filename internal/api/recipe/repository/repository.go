package recipeRepository

import (
	"sitecooking/internal/entity"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Recipes:    &recipesRepository{q: sqlExecutor, log: r.log},
		Categories: &categoriesRepository{q: sqlExecutor, log: r.log},
		Tags:       &tagsRepository{q: sqlExecutor, log: r.log},
		Commit:     commitFunc,
		Rollback:   rollbackFunc,
	}, nil
}

type Client struct {
	Recipes interface {
		CreateRecipe(ctx context.Context, recipe entity.Recipe) error
		GetRecipeByID(ctx context.Context, id string) (entity.Recipe, error)
		GetPublishedRecipeBySlug(ctx context.Context, slug string) (entity.Recipe, error)
		CountRecipes(ctx context.Context, filter ListFilter) (int, error)
		ListRecipes(ctx context.Context, filter ListFilter, limit, offset int) ([]entity.Recipe, error)
		SearchPublishedRecipes(ctx context.Context, pattern string) ([]entity.Recipe, error)
		SlugExists(ctx context.Context, slug string, excludeID string) (bool, error)
		UpdateRecipe(ctx context.Context, recipe entity.Recipe) error
		DeleteRecipe(ctx context.Context, id string) error
		SetRecipeTags(ctx context.Context, recipeID string, tagIDs []int64) error
	}

	Categories interface {
		GetAllCategories(ctx context.Context) ([]entity.Category, error)
		GetPublishedCategories(ctx context.Context) ([]entity.Category, error)
		GetCategoryByID(ctx context.Context, id int64) (entity.Category, error)
		GetCategoryBySlug(ctx context.Context, slug string) (entity.Category, error)
	}

	Tags interface {
		GetAllTags(ctx context.Context) ([]entity.Tag, error)
		GetPublishedTags(ctx context.Context) ([]entity.Tag, error)
		GetTagsForRecipe(ctx context.Context, recipeID string) ([]entity.Tag, error)
		GetTagsByIDs(ctx context.Context, ids []int64) ([]entity.Tag, error)
		GetTagBySlug(ctx context.Context, slug string) (entity.Tag, error)
	}

	Commit   func() error
	Rollback func() error
}

type recipesRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type categoriesRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type tagsRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
