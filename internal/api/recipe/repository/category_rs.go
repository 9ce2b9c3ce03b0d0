package recipeRepository

import (
	"context"
	"database/sql"
	"errors"

	"sitecooking/internal/api/recipe"
	"sitecooking/internal/entity"
	contextPkg "sitecooking/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type CategoryDB struct {
	ID   sql.NullInt64  `db:"id"`
	Name sql.NullString `db:"name"`
	Slug sql.NullString `db:"slug"`
}

func (r *categoriesRepository) GetAllCategories(ctx context.Context) ([]entity.Category, error) {
	return r.list(ctx, queryGetAllCategories, "GetAllCategories")
}

// GetPublishedCategories returns the categories that have at least one
// published recipe.
func (r *categoriesRepository) GetPublishedCategories(ctx context.Context) ([]entity.Category, error) {
	return r.list(ctx, queryGetPublishedCategories, "GetPublishedCategories")
}

func (r *categoriesRepository) list(ctx context.Context, namedQuery string, operation string) ([]entity.Category, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var categoriesList []CategoryDB

	query, args, err := sqlx.Named(namedQuery, map[string]interface{}{})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(operation + " named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &categoriesList, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(operation + " execution err")
		return nil, err
	}

	categories := make([]entity.Category, 0, len(categoriesList))
	for _, categoryDB := range categoriesList {
		categories = append(categories, r.makeCategory(categoryDB))
	}

	return categories, nil
}

func (r *categoriesRepository) GetCategoryByID(ctx context.Context, id int64) (entity.Category, error) {
	return r.get(ctx, queryGetCategoryByID, map[string]interface{}{"id": id}, "GetCategoryByID")
}

func (r *categoriesRepository) GetCategoryBySlug(ctx context.Context, slug string) (entity.Category, error) {
	return r.get(ctx, queryGetCategoryBySlug, map[string]interface{}{"slug": slug}, "GetCategoryBySlug")
}

func (r *categoriesRepository) get(ctx context.Context, namedQuery string, argsKV map[string]interface{}, operation string) (entity.Category, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var category CategoryDB

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(operation + " named query preparation err")
		return entity.Category{}, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"args":       argsKV,
			}).Warn(operation + " no rows found")
			return entity.Category{}, recipes.ErrCategoryNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(operation + " execution err")
		return entity.Category{}, err
	}

	return r.makeCategory(category), nil
}

func (r *categoriesRepository) makeCategory(category CategoryDB) entity.Category {
	return entity.Category{
		ID:   category.ID.Int64,
		Name: category.Name.String,
		Slug: category.Slug.String,
	}
}
