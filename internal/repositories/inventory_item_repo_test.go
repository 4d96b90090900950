package repositories

import (
	"context"
	"testing"
	"time"

	"helpkart/internal/common"
	"helpkart/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

var itemRowColumns = []string{"id", "center_id", "name", "category", "quantity", "reserved_quantity", "unit", "classification", "notes", "expiry_date", "version", "created_at", "updated_at"}

type InventoryItemRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     InventoryItemRepository
	centerID uuid.UUID
	itemID   uuid.UUID
	now      time.Time
	context  context.Context
}

func (suite *InventoryItemRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewInventoryItemRepo(mock)
	suite.centerID = uuid.New()
	suite.itemID = uuid.New()
	suite.now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	suite.context = context.Background()
}

func (suite *InventoryItemRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestInventoryItemRepoTestSuite(t *testing.T) {
	suite.Run(t, new(InventoryItemRepoTestSuite))
}

func (suite *InventoryItemRepoTestSuite) newItem() *models.InventoryItem {
	return &models.InventoryItem{
		ID:             suite.itemID,
		CenterID:       suite.centerID,
		Name:           "Blankets",
		Category:       models.CategoryClothing,
		Quantity:       100,
		Unit:           "pieces",
		Classification: models.ClassificationSurplus,
		CreatedAt:      suite.now,
		UpdatedAt:      suite.now,
	}
}

func (suite *InventoryItemRepoTestSuite) itemRow(rows *pgxmock.Rows, item *models.InventoryItem) *pgxmock.Rows {
	return rows.AddRow(item.ID, item.CenterID, item.Name, item.Category, item.Quantity, item.ReservedQuantity,
		item.Unit, item.Classification, item.Notes, item.ExpiryDate, item.Version, item.CreatedAt, item.UpdatedAt)
}

func (suite *InventoryItemRepoTestSuite) TestCreate_SetsInitialVersion() {
	item := suite.newItem()

	suite.mock.ExpectExec(`INSERT INTO inventory_items`).
		WithArgs(item.ID, item.CenterID, item.Name, item.Category, item.Quantity, item.Unit,
			item.Classification, item.Notes, item.ExpiryDate, item.CreatedAt, item.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, item)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, item.Version)
	assert.Equal(suite.T(), 0, item.ReservedQuantity)
}

func (suite *InventoryItemRepoTestSuite) TestGetByID_Success() {
	item := suite.newItem()
	item.Version = 3
	item.ReservedQuantity = 20

	suite.mock.ExpectQuery(`SELECT .* FROM inventory_items WHERE id = \$1`).
		WithArgs(item.ID).
		WillReturnRows(suite.itemRow(pgxmock.NewRows(itemRowColumns), item))

	got, err := suite.repo.GetByID(suite.context, item.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 80, got.Available())
	assert.Equal(suite.T(), 3, got.Version)
}

func (suite *InventoryItemRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`SELECT .* FROM inventory_items WHERE id = \$1`).
		WithArgs(suite.itemID).
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.GetByID(suite.context, suite.itemID)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *InventoryItemRepoTestSuite) TestUpdate_VersionGuard() {
	item := suite.newItem()
	item.Quantity = 40

	suite.mock.ExpectExec(`UPDATE inventory_items SET name = \$1`).
		WithArgs(item.Name, item.Category, item.Quantity, item.Unit, item.Classification,
			item.Notes, item.ExpiryDate, item.UpdatedAt, item.ID, item.CenterID, 4).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.Update(suite.context, item, 4)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 5, item.Version)
}

func (suite *InventoryItemRepoTestSuite) TestUpdate_StaleVersionIsConflict() {
	item := suite.newItem()

	suite.mock.ExpectExec(`UPDATE inventory_items SET name = \$1`).
		WithArgs(item.Name, item.Category, item.Quantity, item.Unit, item.Classification,
			item.Notes, item.ExpiryDate, item.UpdatedAt, item.ID, item.CenterID, 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.Update(suite.context, item, 2)
	assert.ErrorIs(suite.T(), err, common.ErrConflict)
}

func (suite *InventoryItemRepoTestSuite) TestDelete_RejectsPendingTransactions() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`UPDATE transactions SET status = 'rejected', rejected_by = \$1.* inventory_item_id = \$2`).
		WithArgs(suite.centerID, suite.itemID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`DELETE FROM inventory_items WHERE id = \$1 AND center_id = \$2`).
		WithArgs(suite.itemID, suite.centerID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.Delete(suite.context, suite.centerID, suite.itemID)
	assert.NoError(suite.T(), err)
}

func (suite *InventoryItemRepoTestSuite) TestDelete_MissingItemIsNoOp() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`UPDATE transactions`).
		WithArgs(suite.centerID, suite.itemID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	suite.mock.ExpectExec(`DELETE FROM inventory_items`).
		WithArgs(suite.itemID, suite.centerID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	suite.mock.ExpectCommit()

	err := suite.repo.Delete(suite.context, suite.centerID, suite.itemID)
	assert.NoError(suite.T(), err)
}

func (suite *InventoryItemRepoTestSuite) TestListByCenter_BuildsFilter() {
	category := models.CategoryMedical
	minQuantity := 5
	filter := &models.ItemSearchFilter{
		Query:       "band%age",
		Category:    &category,
		MinQuantity: &minQuantity,
		SortBy:      "name",
		Limit:       20,
	}
	item := suite.newItem()

	suite.mock.ExpectQuery(`WHERE center_id = \$1 AND name ILIKE \$2 AND category = \$3 AND quantity >= \$4 ORDER BY LOWER\(name\) ASC, id LIMIT \$5`).
		WithArgs(suite.centerID, `%band\%age%`, category, minQuantity, 20).
		WillReturnRows(suite.itemRow(pgxmock.NewRows(itemRowColumns), item))

	items, err := suite.repo.ListByCenter(suite.context, suite.centerID, filter)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), items, 1)
}

func (suite *InventoryItemRepoTestSuite) TestListSurplusExcluding_LiteralWildcards() {
	suite.mock.ExpectQuery(`WHERE center_id <> \$1 AND classification = 'surplus' AND name ILIKE \$2`).
		WithArgs(suite.centerID, `%first\_aid kit\\%`).
		WillReturnRows(pgxmock.NewRows(itemRowColumns))

	items, err := suite.repo.ListSurplusExcluding(suite.context, suite.centerID, &models.SurplusFilter{Query: " first_aid kit\\ "})
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), items)
}

func (suite *InventoryItemRepoTestSuite) TestListSurplusExcluding_QuantitySort() {
	suite.mock.ExpectQuery(`WHERE center_id <> \$1 AND classification = 'surplus' ORDER BY quantity DESC, id`).
		WithArgs(suite.centerID).
		WillReturnRows(pgxmock.NewRows(itemRowColumns))

	items, err := suite.repo.ListSurplusExcluding(suite.context, suite.centerID, &models.SurplusFilter{SortBy: "quantity"})
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), items)
}

func (suite *InventoryItemRepoTestSuite) TestItemOrderBy() {
	assert.Equal(suite.T(), "created_at DESC, id", itemOrderBy("", ""))
	assert.Equal(suite.T(), "created_at DESC, id", itemOrderBy("recent", ""))
	assert.Equal(suite.T(), "LOWER(name) ASC, id", itemOrderBy("name", ""))
	assert.Equal(suite.T(), "quantity DESC, id", itemOrderBy("quantity", ""))
	assert.Equal(suite.T(), "quantity ASC, id", itemOrderBy("quantity", "asc"))
}
