package recipeService

import (
	"context"
	"mime/multipart"
	"os"
	"strconv"
	"time"

	"sitecooking/internal/api/recipe"
	recipeRepository "sitecooking/internal/api/recipe/repository"
	"sitecooking/internal/entity"
	"sitecooking/pkg/redis"
	"sitecooking/pkg/s3"
	"sitecooking/pkg/utils"
	"sitecooking/pkg/view"

	"github.com/sirupsen/logrus"
)

type IRecipesService interface {
	Frame(ctx context.Context, title string, user *entity.UserLoginData, selected view.Selection) view.Frame

	Listing(ctx context.Context, scope recipes.Scope, order recipes.Order, page string, user *entity.UserLoginData) (*recipes.ListingContext, error)
	Search(ctx context.Context, query string, user *entity.UserLoginData) (*recipes.SearchContext, error)
	Detail(ctx context.Context, slug string, user *entity.UserLoginData) (*recipes.DetailContext, error)

	NewForm(ctx context.Context, user *entity.UserLoginData) (*recipes.FormContext, error)
	EditForm(ctx context.Context, id string, user *entity.UserLoginData) (*recipes.FormContext, error)
	DeletePage(ctx context.Context, id string, user *entity.UserLoginData) (*recipes.DeleteContext, error)

	CreateRecipe(ctx context.Context, req recipes.RecipeRequest, userID string, photo *multipart.FileHeader) (string, error)
	UpdateRecipe(ctx context.Context, id string, req recipes.RecipeRequest, userID string, photo *multipart.FileHeader) error
	DeleteRecipe(ctx context.Context, id string, userID string) error
}

type recipesService struct {
	log         *logrus.Logger
	recipesRepo recipeRepository.Repository
	s3Client    s3.ItfS3
	cache       redis.IRedis
	utils       utils.IUtils
	sidebarTTL  time.Duration
}

func NewRecipesService(
	log *logrus.Logger,
	recipesRepo recipeRepository.Repository,
	s3Client s3.ItfS3,
	cache redis.IRedis,
	utils utils.IUtils,
) IRecipesService {
	ttl, err := strconv.Atoi(os.Getenv("CACHE_SIDEBAR_TTL_IN_MINUTES"))
	if err != nil || ttl <= 0 {
		ttl = 10
	}

	return &recipesService{
		log:         log,
		recipesRepo: recipesRepo,
		s3Client:    s3Client,
		cache:       cache,
		utils:       utils,
		sidebarTTL:  time.Duration(ttl) * time.Minute,
	}
}
