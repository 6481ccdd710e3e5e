// internal/services/product_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/depot-app/depot-backend/internal/models"
)

type ProductServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *ProductService

	owner *models.User
	other *models.User
	admin *models.User
}

func (suite *ProductServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.service = NewProductService(suite.db)

	suite.owner = createTestUser(suite.T(), suite.db, "owner", models.RoleUser)
	suite.other = createTestUser(suite.T(), suite.db, "other", models.RoleUser)
	suite.admin = createTestUser(suite.T(), suite.db, "root", models.RoleAdmin)
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func (suite *ProductServiceTestSuite) createProduct(name string) *models.Product {
	product, err := suite.service.Create(ActorForUser(suite.owner), &CreateProductRequest{
		Name:     name,
		Price:    floatPtr(9.99),
		Stock:    intPtr(5),
		Category: "Misc",
	}, "127.0.0.1")
	suite.Require().NoError(err)
	return product
}

func (suite *ProductServiceTestSuite) TestCreateRequiresAuthentication() {
	_, err := suite.service.Create(Anonymous, &CreateProductRequest{
		Name:  "Widget",
		Price: floatPtr(1.00),
	}, "127.0.0.1")
	suite.ErrorIs(err, ErrForbidden)

	var count int64
	suite.NoError(suite.db.Model(&models.Product{}).Count(&count).Error)
	suite.Equal(int64(0), count)
	suite.Equal(int64(0), countAudit(suite.T(), suite.db, models.ActionCreateProduct))
}

func (suite *ProductServiceTestSuite) TestCreateWritesAudit() {
	product := suite.createProduct("Widget")

	suite.Equal(suite.owner.ID, product.OwnerID)
	suite.Equal(int64(1), countAudit(suite.T(), suite.db, models.ActionCreateProduct))
}

func (suite *ProductServiceTestSuite) TestCreateValidation() {
	_, err := suite.service.Create(ActorForUser(suite.owner), &CreateProductRequest{
		Name:  "Widget",
		Price: floatPtr(-1),
	}, "127.0.0.1")

	var validationErr *ValidationError
	suite.ErrorAs(err, &validationErr)
}

func (suite *ProductServiceTestSuite) TestGetIsOpenToAnonymous() {
	product := suite.createProduct("Widget")

	got, err := suite.service.Get(product.ID)
	suite.NoError(err)
	suite.Equal(product.ID, got.ID)

	_, err = suite.service.Get(uuid.New())
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *ProductServiceTestSuite) TestUpdateOwnerOrAdminGate() {
	product := suite.createProduct("Widget")

	// A different plain user is rejected and nothing changes.
	_, err := suite.service.Update(ActorForUser(suite.other), product.ID,
		&UpdateProductRequest{Name: strPtr("Hijacked")}, "127.0.0.1")
	suite.ErrorIs(err, ErrForbidden)

	var unchanged models.Product
	suite.NoError(suite.db.First(&unchanged, "id = ?", product.ID).Error)
	suite.Equal("Widget", unchanged.Name)
	suite.Equal(int64(0), countAudit(suite.T(), suite.db, models.ActionUpdateProduct))

	// The owner may update.
	updated, err := suite.service.Update(ActorForUser(suite.owner), product.ID,
		&UpdateProductRequest{Name: strPtr("Widget v2")}, "127.0.0.1")
	suite.NoError(err)
	suite.Equal("Widget v2", updated.Name)

	// So may an admin who does not own it.
	updated, err = suite.service.Update(ActorForUser(suite.admin), product.ID,
		&UpdateProductRequest{Name: strPtr("Widget v3")}, "127.0.0.1")
	suite.NoError(err)
	suite.Equal("Widget v3", updated.Name)

	suite.Equal(int64(2), countAudit(suite.T(), suite.db, models.ActionUpdateProduct))
}

func (suite *ProductServiceTestSuite) TestUpdateAnonymousForbidden() {
	product := suite.createProduct("Widget")

	_, err := suite.service.Update(Anonymous, product.ID,
		&UpdateProductRequest{Name: strPtr("Hijacked")}, "127.0.0.1")
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *ProductServiceTestSuite) TestEmptyUpdateIsANoOp() {
	product := suite.createProduct("Widget")

	updated, err := suite.service.Update(ActorForUser(suite.owner), product.ID,
		&UpdateProductRequest{}, "127.0.0.1")
	suite.Require().NoError(err)

	suite.Equal("Widget", updated.Name)
	suite.True(product.UpdatedAt.Equal(updated.UpdatedAt))
	suite.Equal(int64(0), countAudit(suite.T(), suite.db, models.ActionUpdateProduct))
}

func (suite *ProductServiceTestSuite) TestPartialUpdateLeavesAbsentFieldsAlone() {
	product := suite.createProduct("Widget")

	updated, err := suite.service.Update(ActorForUser(suite.owner), product.ID,
		&UpdateProductRequest{Price: floatPtr(19.99)}, "127.0.0.1")
	suite.Require().NoError(err)

	suite.Equal("Widget", updated.Name)
	suite.Equal(19.99, updated.Price)
	suite.Equal(5, updated.Stock)
	suite.Equal("Misc", updated.Category)
}

func (suite *ProductServiceTestSuite) TestPartialUpdateExplicitZero() {
	product := suite.createProduct("Widget")

	// A present zero is an update, not an absence.
	updated, err := suite.service.Update(ActorForUser(suite.owner), product.ID,
		&UpdateProductRequest{Stock: intPtr(0)}, "127.0.0.1")
	suite.Require().NoError(err)
	suite.Equal(0, updated.Stock)
	suite.Equal("Widget", updated.Name)
}

func (suite *ProductServiceTestSuite) TestUpdateUnknownProduct() {
	_, err := suite.service.Update(ActorForUser(suite.owner), uuid.New(),
		&UpdateProductRequest{Name: strPtr("Ghost")}, "127.0.0.1")
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *ProductServiceTestSuite) TestDeleteOwnerOrAdminGate() {
	product := suite.createProduct("Widget")

	suite.ErrorIs(suite.service.Delete(ActorForUser(suite.other), product.ID, "127.0.0.1"), ErrForbidden)
	suite.ErrorIs(suite.service.Delete(Anonymous, product.ID, "127.0.0.1"), ErrForbidden)

	suite.NoError(suite.service.Delete(ActorForUser(suite.owner), product.ID, "127.0.0.1"))
	suite.Equal(int64(1), countAudit(suite.T(), suite.db, models.ActionDeleteProduct))

	_, err := suite.service.Get(product.ID)
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *ProductServiceTestSuite) seedCatalog() {
	// Explicit timestamps make the newest-first ordering observable.
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rows := []models.Product{
		{Name: "Desk lamp", Price: 35.00, Category: "Furniture", OwnerID: suite.owner.ID},
		{Name: "Speaker", Price: 120.00, Category: "Audio", OwnerID: suite.owner.ID},
		{Name: "Headphones", Price: 350.00, Category: "Audio", OwnerID: suite.other.ID},
		{Name: "Turntable", Price: 480.00, Category: "Audio", OwnerID: suite.other.ID},
	}
	for i := range rows {
		rows[i].BaseModel.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		suite.Require().NoError(suite.db.Create(&rows[i]).Error)
	}
}

func (suite *ProductServiceTestSuite) TestListFiltersAndOrder() {
	suite.seedCatalog()

	products, err := suite.service.List(ProductFilter{
		Category: "Audio",
		MaxPrice: floatPtr(400),
	})
	suite.Require().NoError(err)
	suite.Require().Len(products, 2)

	// Newest first.
	suite.Equal("Headphones", products[0].Name)
	suite.Equal("Speaker", products[1].Name)
}

func (suite *ProductServiceTestSuite) TestListPriceRangeAndLimit() {
	suite.seedCatalog()

	products, err := suite.service.List(ProductFilter{MinPrice: floatPtr(100)})
	suite.Require().NoError(err)
	suite.Len(products, 3)

	products, err = suite.service.List(ProductFilter{Limit: 2})
	suite.Require().NoError(err)
	suite.Require().Len(products, 2)
	suite.Equal("Turntable", products[0].Name)
}

func (suite *ProductServiceTestSuite) TestListSearchIsCaseInsensitive() {
	suite.seedCatalog()

	products, err := suite.service.List(ProductFilter{Search: "HEAD"})
	suite.Require().NoError(err)
	suite.Require().Len(products, 1)
	suite.Equal("Headphones", products[0].Name)
}

func (suite *ProductServiceTestSuite) TestListForOwner() {
	suite.seedCatalog()

	products, err := suite.service.ListForOwner(suite.owner.ID, 0)
	suite.Require().NoError(err)
	suite.Len(products, 2)
	for _, p := range products {
		suite.Equal(suite.owner.ID, p.OwnerID)
	}
}

func (suite *ProductServiceTestSuite) TestCategories() {
	suite.seedCatalog()

	categories, err := suite.service.Categories()
	suite.Require().NoError(err)
	suite.Equal([]string{"Audio", "Furniture"}, categories)
}

func TestProductServiceSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceTestSuite))
}
