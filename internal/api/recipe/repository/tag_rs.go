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

type TagDB struct {
	ID   sql.NullInt64  `db:"id"`
	Tag  sql.NullString `db:"tag"`
	Slug sql.NullString `db:"slug"`
}

func (r *tagsRepository) GetAllTags(ctx context.Context) ([]entity.Tag, error) {
	return r.list(ctx, queryGetAllTags, map[string]interface{}{}, "GetAllTags")
}

// GetPublishedTags returns the tags carried by at least one published recipe.
func (r *tagsRepository) GetPublishedTags(ctx context.Context) ([]entity.Tag, error) {
	return r.list(ctx, queryGetPublishedTags, map[string]interface{}{}, "GetPublishedTags")
}

func (r *tagsRepository) GetTagsForRecipe(ctx context.Context, recipeID string) ([]entity.Tag, error) {
	return r.list(ctx, queryGetTagsForRecipe, map[string]interface{}{"recipe_id": recipeID}, "GetTagsForRecipe")
}

func (r *tagsRepository) GetTagsByIDs(ctx context.Context, ids []int64) ([]entity.Tag, error) {
	requestID := contextPkg.GetRequestID(ctx)
	if len(ids) == 0 {
		return []entity.Tag{}, nil
	}

	var tagsList []TagDB

	query, args, err := sqlx.In(queryGetTagsByIDs, ids)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTagsByIDs in query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &tagsList, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTagsByIDs execution err")
		return nil, err
	}

	return r.makeTags(tagsList), nil
}

func (r *tagsRepository) list(ctx context.Context, namedQuery string, argsKV map[string]interface{}, operation string) ([]entity.Tag, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var tagsList []TagDB

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(operation + " named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &tagsList, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(operation + " execution err")
		return nil, err
	}

	return r.makeTags(tagsList), nil
}

func (r *tagsRepository) GetTagBySlug(ctx context.Context, slug string) (entity.Tag, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var tag TagDB

	query, args, err := sqlx.Named(queryGetTagBySlug, map[string]interface{}{"slug": slug})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTagBySlug named query preparation err")
		return entity.Tag{}, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&tag); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"slug":       slug,
			}).Warn("GetTagBySlug no rows found")
			return entity.Tag{}, recipes.ErrTagNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTagBySlug execution err")
		return entity.Tag{}, err
	}

	return r.makeTag(tag), nil
}

func (r *tagsRepository) makeTags(list []TagDB) []entity.Tag {
	tags := make([]entity.Tag, 0, len(list))
	for _, tagDB := range list {
		tags = append(tags, r.makeTag(tagDB))
	}
	return tags
}

func (r *tagsRepository) makeTag(tag TagDB) entity.Tag {
	return entity.Tag{
		ID:   tag.ID.Int64,
		Tag:  tag.Tag.String,
		Slug: tag.Slug.String,
	}
}
