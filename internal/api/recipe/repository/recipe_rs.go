package recipeRepository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"sitecooking/internal/api/recipe"
	"sitecooking/internal/entity"
	contextPkg "sitecooking/pkg/context"
	"sitecooking/pkg/database"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type RecipeDB struct {
	ID          sql.NullString `db:"id"`
	Title       sql.NullString `db:"title"`
	Slug        sql.NullString `db:"slug"`
	Content     sql.NullString `db:"content"`
	Photo       sql.NullString `db:"photo"`
	IsPublished bool           `db:"is_published"`
	TimeCreate  database.Time  `db:"time_create"`
	TimeUpdate  database.Time  `db:"time_update"`
	CatID       sql.NullInt64  `db:"cat_id"`
	AuthorID    sql.NullString `db:"author_id"`
	CatName     sql.NullString `db:"cat_name"`
	CatSlug     sql.NullString `db:"cat_slug"`
}

// ListFilter narrows a recipe listing. Zero fields do not filter.
type ListFilter struct {
	PublishedOnly bool
	CategoryID    int64
	TagID         int64
	AuthorID      string
	Order         recipes.Order
}

func (f ListFilter) where() (string, map[string]interface{}) {
	var conds []string
	args := map[string]interface{}{}

	if f.PublishedOnly {
		conds = append(conds, "r.is_published = TRUE")
	}
	if f.CategoryID != 0 {
		conds = append(conds, "r.cat_id = :cat_id")
		args["cat_id"] = f.CategoryID
	}
	if f.TagID != 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = r.id AND rt.tag_id = :tag_id)")
		args["tag_id"] = f.TagID
	}
	if f.AuthorID != "" {
		conds = append(conds, "r.author_id = :author_id")
		args["author_id"] = f.AuthorID
	}
	if p := f.Order.Predicate(); p != "" {
		conds = append(conds, p)
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (r *recipesRepository) CreateRecipe(ctx context.Context, recipe entity.Recipe) error {
	requestID := contextPkg.GetRequestID(ctx)
	argsKV := map[string]interface{}{
		"id":           recipe.ID,
		"title":        recipe.Title,
		"slug":         recipe.Slug,
		"content":      recipe.Content,
		"photo":        recipe.Photo,
		"is_published": recipe.IsPublished,
		"time_create":  recipe.TimeCreate,
		"time_update":  recipe.TimeUpdate,
		"cat_id":       recipe.CatID,
		"author_id":    nullString(recipe.AuthorID),
	}

	query, args, err := sqlx.Named(queryCreateRecipe, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateRecipe")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"slug":       recipe.Slug,
			}).Warn("CreateRecipe slug already taken")
			return recipes.ErrSlugTaken
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating recipe")
		return err
	}

	return nil
}

func (r *recipesRepository) GetRecipeByID(ctx context.Context, id string) (entity.Recipe, error) {
	return r.getRecipe(ctx, queryGetRecipeByID, map[string]interface{}{"id": id}, "GetRecipeByID")
}

func (r *recipesRepository) GetPublishedRecipeBySlug(ctx context.Context, slug string) (entity.Recipe, error) {
	return r.getRecipe(ctx, queryGetPublishedRecipeBySlug, map[string]interface{}{"slug": slug}, "GetPublishedRecipeBySlug")
}

func (r *recipesRepository) getRecipe(ctx context.Context, namedQuery string, argsKV map[string]interface{}, operation string) (entity.Recipe, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var recipe RecipeDB

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(operation + " named query preparation err")
		return entity.Recipe{}, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&recipe); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"args":       argsKV,
			}).Warn(operation + " no rows found")
			return entity.Recipe{}, recipes.ErrRecipeNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(operation + " execution err")
		return entity.Recipe{}, err
	}

	return r.makeRecipe(recipe), nil
}

func (r *recipesRepository) CountRecipes(ctx context.Context, filter ListFilter) (int, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var total int

	where, argsKV := filter.where()

	query, args, err := sqlx.Named("SELECT COUNT(*) "+recipeFrom+where, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountRecipes named query preparation err")
		return 0, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).Scan(&total); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountRecipes execution err")
		return 0, err
	}

	return total, nil
}

func (r *recipesRepository) ListRecipes(ctx context.Context, filter ListFilter, limit, offset int) ([]entity.Recipe, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var recipesList []RecipeDB

	where, argsKV := filter.where()
	argsKV["limit"] = limit
	argsKV["offset"] = offset

	namedQuery := "SELECT" + recipeColumns + recipeFrom + where +
		" ORDER BY " + filter.Order.OrderBy() +
		" LIMIT :limit OFFSET :offset"

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListRecipes named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &recipesList, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListRecipes execution err")
		return nil, err
	}

	return r.makeRecipes(recipesList), nil
}

// SearchPublishedRecipes matches pattern against titles without regard to
// case. The pattern is used as is, so callers escape LIKE wildcards.
func (r *recipesRepository) SearchPublishedRecipes(ctx context.Context, pattern string) ([]entity.Recipe, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var recipesList []RecipeDB

	query, args, err := sqlx.Named(querySearchPublishedRecipes, map[string]interface{}{
		"pattern": pattern,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("SearchPublishedRecipes named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &recipesList, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("SearchPublishedRecipes execution err")
		return nil, err
	}

	return r.makeRecipes(recipesList), nil
}

func (r *recipesRepository) SlugExists(ctx context.Context, slug string, excludeID string) (bool, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var total int

	query, args, err := sqlx.Named(queryCountSlug, map[string]interface{}{
		"slug":       slug,
		"exclude_id": excludeID,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("SlugExists named query preparation err")
		return false, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).Scan(&total); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("SlugExists execution err")
		return false, err
	}

	return total > 0, nil
}

func (r *recipesRepository) UpdateRecipe(ctx context.Context, recipe entity.Recipe) error {
	requestID := contextPkg.GetRequestID(ctx)
	argsKV := map[string]interface{}{
		"id":           recipe.ID,
		"title":        recipe.Title,
		"content":      recipe.Content,
		"photo":        recipe.Photo,
		"is_published": recipe.IsPublished,
		"cat_id":       recipe.CatID,
		"time_update":  recipe.TimeUpdate,
	}

	query, args, err := sqlx.Named(queryUpdateRecipe, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateRecipe named query preparation err")
		return err
	}

	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateRecipe execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateRecipe rows affected err")
		return err
	}

	if rowsAffected == 0 {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         recipe.ID,
		}).Warn("UpdateRecipe no rows affected")
		return recipes.ErrRecipeNotFound
	}

	return nil
}

func (r *recipesRepository) DeleteRecipe(ctx context.Context, id string) error {
	requestID := contextPkg.GetRequestID(ctx)

	if err := r.exec(ctx, queryDeleteRecipeTags, map[string]interface{}{"recipe_id": id}, "DeleteRecipeTags"); err != nil {
		return err
	}

	query, args, err := sqlx.Named(queryDeleteRecipe, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteRecipe named query preparation err")
		return err
	}

	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteRecipe execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteRecipe rows affected err")
		return err
	}

	if rowsAffected == 0 {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         id,
		}).Warn("DeleteRecipe no rows affected")
		return recipes.ErrRecipeNotFound
	}

	return nil
}

// SetRecipeTags replaces the recipe's tags with tagIDs.
func (r *recipesRepository) SetRecipeTags(ctx context.Context, recipeID string, tagIDs []int64) error {
	if err := r.exec(ctx, queryDeleteRecipeTags, map[string]interface{}{"recipe_id": recipeID}, "DeleteRecipeTags"); err != nil {
		return err
	}

	for _, tagID := range tagIDs {
		argsKV := map[string]interface{}{
			"recipe_id": recipeID,
			"tag_id":    tagID,
		}
		if err := r.exec(ctx, queryInsertRecipeTag, argsKV, "InsertRecipeTag"); err != nil {
			return err
		}
	}

	return nil
}

func (r *recipesRepository) exec(ctx context.Context, namedQuery string, argsKV map[string]interface{}, operation string) error {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(operation + " named query preparation err")
		return err
	}

	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(operation + " execution err")
		return err
	}

	return nil
}

func (r *recipesRepository) makeRecipes(list []RecipeDB) []entity.Recipe {
	out := make([]entity.Recipe, 0, len(list))
	for _, recipeDB := range list {
		out = append(out, r.makeRecipe(recipeDB))
	}
	return out
}

func (r *recipesRepository) makeRecipe(recipe RecipeDB) entity.Recipe {
	return entity.Recipe{
		ID:          recipe.ID.String,
		Title:       recipe.Title.String,
		Slug:        recipe.Slug.String,
		Content:     recipe.Content.String,
		Photo:       recipe.Photo.String,
		IsPublished: recipe.IsPublished,
		TimeCreate:  recipe.TimeCreate.Time,
		TimeUpdate:  recipe.TimeUpdate.Time,
		CatID:       recipe.CatID.Int64,
		AuthorID:    recipe.AuthorID.String,
		Category: entity.Category{
			ID:   recipe.CatID.Int64,
			Name: recipe.CatName.String,
			Slug: recipe.CatSlug.String,
		},
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
