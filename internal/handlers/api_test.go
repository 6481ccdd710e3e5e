// internal/handlers/api_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/depot-app/depot-backend/internal/config"
	"github.com/depot-app/depot-backend/internal/database"
	"github.com/depot-app/depot-backend/internal/middleware"
	"github.com/depot-app/depot-backend/internal/models"
	"github.com/depot-app/depot-backend/internal/services"
	"github.com/depot-app/depot-backend/internal/utils"
)

// APITestSuite drives the JSON surface end to end against an in-memory
// database, covering the status-code mapping the clients depend on.
type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	cfg    *config.Config
	router *gin.Engine

	userToken  string
	otherToken string
	adminToken string
}

func (suite *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	suite.Require().NoError(err)
	sqlDB, err := db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	suite.Require().NoError(db.Exec("PRAGMA foreign_keys = ON").Error)

	suite.Require().NoError(db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Product{},
		&models.FileUpload{},
		&models.ActivityLog{},
	))
	suite.Require().NoError(database.SeedRoles(db))
	suite.db = db

	suite.cfg = &config.Config{
		Environment: "test",
		Auth: config.AuthConfig{
			SecretKey:       "test-secret",
			SessionTokenTTL: 1,
		},
		Uploads: config.UploadConfig{
			LocalDir:          suite.T().TempDir(),
			MaxSizeBytes:      1024 * 1024,
			AllowedExtensions: []string{".txt", ".pdf", ".png", ".jpg"},
		},
	}
	utils.SetSessionSecret(suite.cfg.Auth.SecretKey)

	suite.router = suite.buildRouter()

	_, err = database.CreateAdminUser(suite.db, "root", "root@example.com", "password123")
	suite.Require().NoError(err)

	suite.userToken = suite.registerAndLogin("alice")
	suite.otherToken = suite.registerAndLogin("bob")
	suite.adminToken = suite.login("root", "password123")
}

// buildRouter assembles the same route tree the server uses, minus the
// rate limiters so the tests are not throttled.
func (suite *APITestSuite) buildRouter() *gin.Engine {
	storageService, err := services.NewStorageService(suite.cfg)
	suite.Require().NoError(err)

	authService := services.NewAuthService(suite.db, suite.cfg)
	productService := services.NewProductService(suite.db)
	uploadService := services.NewUploadService(suite.db, storageService, suite.cfg)
	activityService := services.NewActivityService(suite.db)
	adminService := services.NewAdminService(suite.db, storageService)

	authHandler := NewAuthHandler(authService)
	productHandler := NewProductHandler(productService)
	uploadHandler := NewUploadHandler(uploadService, suite.cfg.Uploads.MaxSizeBytes)
	adminHandler := NewAdminHandler(adminService, activityService, productService, uploadService)

	r := gin.New()
	r.Use(middleware.CurrentActor(authService))

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		products := v1.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.GET("/categories", productHandler.ListCategories)
			products.GET("/:id", productHandler.GetProduct)

			protected := products.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("/mine", productHandler.ListOwnProducts)
				protected.POST("", productHandler.CreateProduct)
				protected.PUT("/:id", productHandler.UpdateProduct)
				protected.DELETE("/:id", productHandler.DeleteProduct)
			}
		}

		uploads := v1.Group("/uploads")
		uploads.Use(middleware.AuthRequired())
		{
			uploads.GET("", uploadHandler.ListUploads)
			uploads.POST("", uploadHandler.UploadFile)
			uploads.GET("/:id/download", uploadHandler.DownloadFile)
			uploads.DELETE("/:id", uploadHandler.DeleteFile)
		}

		stats := v1.Group("/stats")
		stats.Use(middleware.AuthRequired())
		{
			stats.GET("/dashboard", adminHandler.GetDashboard)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:id/active", adminHandler.SetUserActive)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.GET("/roles", adminHandler.ListRoles)
			admin.GET("/activity", adminHandler.ListActivity)
			admin.DELETE("/activity/:id", adminHandler.DeleteActivity)
			admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)
		}
	}

	return r
}

func (suite *APITestSuite) doJSON(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, path, reader)
	suite.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *APITestSuite) parseBody(w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (suite *APITestSuite) errorMessage(w *httptest.ResponseRecorder) string {
	body := suite.parseBody(w)
	errObj, _ := body["error"].(map[string]interface{})
	msg, _ := errObj["message"].(string)
	return msg
}

func (suite *APITestSuite) registerAndLogin(username string) string {
	w := suite.doJSON("POST", "/api/v1/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return suite.login(username, "password123")
}

func (suite *APITestSuite) login(username, password string) string {
	w := suite.doJSON("POST", "/api/v1/auth/login", "", gin.H{
		"username": username,
		"password": password,
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	body := suite.parseBody(w)
	data := body["data"].(map[string]interface{})
	token, _ := data["token"].(string)
	suite.Require().NotEmpty(token)
	return token
}

func (suite *APITestSuite) createProduct(token, name string) string {
	w := suite.doJSON("POST", "/api/v1/products", token, gin.H{
		"name":     name,
		"price":    49.99,
		"stock":    3,
		"category": "Misc",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	body := suite.parseBody(w)
	data := body["data"].(map[string]interface{})
	product := data["product"].(map[string]interface{})
	return product["id"].(string)
}

func (suite *APITestSuite) TestRegisterConflict() {
	w := suite.doJSON("POST", "/api/v1/auth/register", "", gin.H{
		"username": "alice",
		"email":    "second@example.com",
		"password": "password123",
	})
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *APITestSuite) TestRegisterValidation() {
	w := suite.doJSON("POST", "/api/v1/auth/register", "", gin.H{
		"username": "x",
		"email":    "not-an-email",
		"password": "123",
	})
	suite.Equal(http.StatusBadRequest, w.Code)

	body := suite.parseBody(w)
	errObj := body["error"].(map[string]interface{})
	suite.Equal("VALIDATION_ERROR", errObj["code"])
	suite.NotEmpty(errObj["details"])
}

func (suite *APITestSuite) TestLoginFailuresAreIndistinguishable() {
	wrongPassword := suite.doJSON("POST", "/api/v1/auth/login", "", gin.H{
		"username": "alice",
		"password": "wrong",
	})
	suite.Equal(http.StatusUnauthorized, wrongPassword.Code)

	unknownUser := suite.doJSON("POST", "/api/v1/auth/login", "", gin.H{
		"username": "nobody",
		"password": "password123",
	})
	suite.Equal(http.StatusUnauthorized, unknownUser.Code)

	// Disable bob and try his real password.
	suite.Require().NoError(suite.db.Model(&models.User{}).
		Where("username = ?", "bob").Update("active", false).Error)
	disabled := suite.doJSON("POST", "/api/v1/auth/login", "", gin.H{
		"username": "bob",
		"password": "password123",
	})
	suite.Equal(http.StatusUnauthorized, disabled.Code)

	// All three failures carry the same message, so the endpoint leaks
	// neither usernames nor account state.
	suite.Equal(suite.errorMessage(wrongPassword), suite.errorMessage(unknownUser))
	suite.Equal(suite.errorMessage(wrongPassword), suite.errorMessage(disabled))
}

func (suite *APITestSuite) TestProfileRequiresAuth() {
	suite.Equal(http.StatusUnauthorized, suite.doJSON("GET", "/api/v1/auth/me", "", nil).Code)

	w := suite.doJSON("GET", "/api/v1/auth/me", suite.userToken, nil)
	suite.Equal(http.StatusOK, w.Code)

	body := suite.parseBody(w)
	data := body["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	suite.Equal("alice", user["username"])
}

func (suite *APITestSuite) TestProductListIsPublic() {
	suite.createProduct(suite.userToken, "Widget")

	w := suite.doJSON("GET", "/api/v1/products", "", nil)
	suite.Equal(http.StatusOK, w.Code)

	body := suite.parseBody(w)
	data := body["data"].(map[string]interface{})
	suite.Equal(float64(1), data["count"])
}

func (suite *APITestSuite) TestProductMutationsAreGated() {
	suite.Equal(http.StatusUnauthorized, suite.doJSON("POST", "/api/v1/products", "", gin.H{
		"name":  "Widget",
		"price": 1.00,
	}).Code)

	id := suite.createProduct(suite.userToken, "Widget")

	// A different plain user may not touch it.
	w := suite.doJSON("PUT", "/api/v1/products/"+id, suite.otherToken, gin.H{"name": "Hijacked"})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.doJSON("DELETE", "/api/v1/products/"+id, suite.otherToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	// The admin may.
	w = suite.doJSON("PUT", "/api/v1/products/"+id, suite.adminToken, gin.H{"name": "Renamed"})
	suite.Equal(http.StatusOK, w.Code)

	w = suite.doJSON("DELETE", "/api/v1/products/"+id, suite.adminToken, nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestProductNotFoundAndBadID() {
	w := suite.doJSON("GET", "/api/v1/products/2c1f1b3a-0000-0000-0000-000000000000", "", nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.doJSON("GET", "/api/v1/products/not-a-uuid", "", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestOwnProductListing() {
	suite.createProduct(suite.userToken, "Mine")
	suite.createProduct(suite.otherToken, "Theirs")

	w := suite.doJSON("GET", "/api/v1/products/mine", suite.userToken, nil)
	suite.Equal(http.StatusOK, w.Code)

	body := suite.parseBody(w)
	data := body["data"].(map[string]interface{})
	suite.Equal(float64(1), data["count"])
}

func (suite *APITestSuite) uploadFile(token, filename, content string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	suite.Require().NoError(err)
	_, err = part.Write([]byte(content))
	suite.Require().NoError(err)
	suite.Require().NoError(writer.Close())

	req, err := http.NewRequest("POST", "/api/v1/uploads", &buf)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *APITestSuite) TestUploadDownloadFlow() {
	w := suite.uploadFile(suite.userToken, "notes.txt", "hello world")
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	body := suite.parseBody(w)
	data := body["data"].(map[string]interface{})
	upload := data["upload"].(map[string]interface{})
	id := upload["id"].(string)
	suite.Equal("notes.txt", upload["original_filename"])

	// The owner gets the bytes back with the original name suggested.
	dl := suite.doJSON("GET", fmt.Sprintf("/api/v1/uploads/%s/download", id), suite.userToken, nil)
	suite.Equal(http.StatusOK, dl.Code)
	suite.Equal("hello world", dl.Body.String())
	suite.Contains(dl.Header().Get("Content-Disposition"), `"notes.txt"`)

	// Another user does not.
	suite.Equal(http.StatusForbidden,
		suite.doJSON("GET", fmt.Sprintf("/api/v1/uploads/%s/download", id), suite.otherToken, nil).Code)

	// Delete and confirm it is gone.
	suite.Equal(http.StatusOK,
		suite.doJSON("DELETE", "/api/v1/uploads/"+id, suite.userToken, nil).Code)
	suite.Equal(http.StatusNotFound,
		suite.doJSON("GET", fmt.Sprintf("/api/v1/uploads/%s/download", id), suite.userToken, nil).Code)
}

func (suite *APITestSuite) TestUploadRejectsDisallowedExtension() {
	w := suite.uploadFile(suite.userToken, "payload.exe", "MZ")
	suite.Equal(http.StatusBadRequest, w.Code)

	body := suite.parseBody(w)
	errObj := body["error"].(map[string]interface{})
	suite.Equal("VALIDATION_ERROR", errObj["code"])
}

func (suite *APITestSuite) TestUploadRejectsOversizedFile() {
	oversized := strings.Repeat("a", int(suite.cfg.Uploads.MaxSizeBytes)+1)
	w := suite.uploadFile(suite.userToken, "big.txt", oversized)
	suite.Equal(http.StatusRequestEntityTooLarge, w.Code)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.FileUpload{}).Count(&count).Error)
	suite.Zero(count)
}

func (suite *APITestSuite) TestUploadRequiresAuth() {
	w := suite.uploadFile("", "notes.txt", "hi")
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *APITestSuite) TestAdminSurfaceIsGated() {
	suite.Equal(http.StatusUnauthorized, suite.doJSON("GET", "/api/v1/admin/users", "", nil).Code)
	suite.Equal(http.StatusForbidden, suite.doJSON("GET", "/api/v1/admin/users", suite.userToken, nil).Code)

	w := suite.doJSON("GET", "/api/v1/admin/users", suite.adminToken, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.NotEmpty(w.Header().Get("X-Total-Count"))
}

func (suite *APITestSuite) TestAdminActivityListing() {
	w := suite.doJSON("GET", "/api/v1/admin/activity", suite.adminToken, nil)
	suite.Equal(http.StatusOK, w.Code)

	// Registrations and logins from the fixture accounts are documented.
	body := suite.parseBody(w)
	entries := body["data"].([]interface{})
	suite.NotEmpty(entries)
}

func (suite *APITestSuite) TestAdminUserLifecycle() {
	var bob models.User
	suite.Require().NoError(suite.db.Where("username = ?", "bob").First(&bob).Error)

	w := suite.doJSON("PUT", "/api/v1/admin/users/"+bob.ID.String()+"/active", suite.adminToken, gin.H{"active": false})
	suite.Equal(http.StatusOK, w.Code)

	// Bob's existing token now resolves to nobody.
	suite.Equal(http.StatusUnauthorized, suite.doJSON("GET", "/api/v1/auth/me", suite.otherToken, nil).Code)

	w = suite.doJSON("DELETE", "/api/v1/admin/users/"+bob.ID.String(), suite.adminToken, nil)
	suite.Equal(http.StatusOK, w.Code)

	var count int64
	suite.NoError(suite.db.Model(&models.User{}).Where("id = ?", bob.ID).Count(&count).Error)
	suite.Equal(int64(0), count)
}

func (suite *APITestSuite) TestDashboardPerRole() {
	w := suite.doJSON("GET", "/api/v1/stats/dashboard", suite.userToken, nil)
	suite.Equal(http.StatusOK, w.Code)
	body := suite.parseBody(w)
	stats := body["data"].(map[string]interface{})["stats"].(map[string]interface{})
	suite.Contains(stats, "my_products")

	w = suite.doJSON("GET", "/api/v1/stats/dashboard", suite.adminToken, nil)
	suite.Equal(http.StatusOK, w.Code)
	body = suite.parseBody(w)
	stats = body["data"].(map[string]interface{})["stats"].(map[string]interface{})
	suite.Contains(stats, "total_users")
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
