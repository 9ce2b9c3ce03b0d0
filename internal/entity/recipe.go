package entity

import "time"

type Recipe struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Slug        string    `db:"slug"`
	Content     string    `db:"content"`
	Photo       string    `db:"photo"`
	IsPublished bool      `db:"is_published"`
	TimeCreate  time.Time `db:"time_create"`
	TimeUpdate  time.Time `db:"time_update"`
	CatID       int64     `db:"cat_id"`
	AuthorID    string    `db:"author_id"`

	Category Category
	Tags     []Tag
}

func (r Recipe) HasPhoto() bool {
	return r.Photo != ""
}

type Category struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	Slug string `db:"slug"`
}

type Tag struct {
	ID   int64  `db:"id"`
	Tag  string `db:"tag"`
	Slug string `db:"slug"`
}
