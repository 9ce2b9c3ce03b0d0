package recipeRepository

const (
	recipeColumns = `
			r.id,
			r.title,
			r.slug,
			r.content,
			r.photo,
			r.is_published,
			r.time_create,
			r.time_update,
			r.cat_id,
			r.author_id,
			c.name AS cat_name,
			c.slug AS cat_slug
	`

	recipeFrom = `
		FROM recipes r
		JOIN categories c ON c.id = r.cat_id
	`

	queryCreateRecipe = `
		INSERT INTO recipes (
			id,
			title,
			slug,
			content,
			photo,
			is_published,
			time_create,
			time_update,
			cat_id,
			author_id
		) VALUES (
			:id,
			:title,
			:slug,
			:content,
			:photo,
			:is_published,
			:time_create,
			:time_update,
			:cat_id,
			:author_id
		)
	`

	queryGetRecipeByID = `
		SELECT` + recipeColumns + recipeFrom + `
		WHERE r.id = :id
	`

	queryGetPublishedRecipeBySlug = `
		SELECT` + recipeColumns + recipeFrom + `
		WHERE r.slug = :slug AND r.is_published = TRUE
	`

	querySearchPublishedRecipes = `
		SELECT` + recipeColumns + recipeFrom + `
		WHERE r.is_published = TRUE
			AND LOWER(r.title) LIKE LOWER(:pattern) ESCAPE '\'
		ORDER BY r.id ASC
	`

	queryCountSlug = `
		SELECT COUNT(*)
		FROM recipes
		WHERE slug = :slug AND id <> :exclude_id
	`

	queryUpdateRecipe = `
		UPDATE recipes
		SET
			title = :title,
			content = :content,
			photo = :photo,
			is_published = :is_published,
			cat_id = :cat_id,
			time_update = :time_update
		WHERE id = :id
	`

	queryDeleteRecipe = `
		DELETE FROM recipes
		WHERE id = :id
	`

	queryDeleteRecipeTags = `
		DELETE FROM recipe_tags
		WHERE recipe_id = :recipe_id
	`

	queryInsertRecipeTag = `
		INSERT INTO recipe_tags (recipe_id, tag_id)
		VALUES (:recipe_id, :tag_id)
	`

	queryGetAllCategories = `
		SELECT
			id,
			name,
			slug
		FROM categories
		ORDER BY id ASC
	`

	queryGetPublishedCategories = `
		SELECT
			c.id,
			c.name,
			c.slug
		FROM categories c
		WHERE EXISTS (
			SELECT 1 FROM recipes r
			WHERE r.cat_id = c.id AND r.is_published = TRUE
		)
		ORDER BY c.id ASC
	`

	queryGetCategoryByID = `
		SELECT
			id,
			name,
			slug
		FROM categories
		WHERE id = :id
	`

	queryGetCategoryBySlug = `
		SELECT
			id,
			name,
			slug
		FROM categories
		WHERE slug = :slug
	`

	queryGetAllTags = `
		SELECT
			id,
			tag,
			slug
		FROM tags
		ORDER BY id ASC
	`

	queryGetPublishedTags = `
		SELECT
			t.id,
			t.tag,
			t.slug
		FROM tags t
		WHERE EXISTS (
			SELECT 1 FROM recipe_tags rt
			JOIN recipes r ON r.id = rt.recipe_id
			WHERE rt.tag_id = t.id AND r.is_published = TRUE
		)
		ORDER BY t.id ASC
	`

	queryGetTagBySlug = `
		SELECT
			id,
			tag,
			slug
		FROM tags
		WHERE slug = :slug
	`

	queryGetTagsByIDs = `
		SELECT
			id,
			tag,
			slug
		FROM tags
		WHERE id IN (?)
		ORDER BY id ASC
	`

	queryGetTagsForRecipe = `
		SELECT
			t.id,
			t.tag,
			t.slug
		FROM tags t
		JOIN recipe_tags rt ON rt.tag_id = t.id
		WHERE rt.recipe_id = :recipe_id
		ORDER BY t.id ASC
	`
)
