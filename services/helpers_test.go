package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"creditdesk/database"
	"creditdesk/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

type fixture struct {
	db       *gorm.DB
	client   models.Client
	rate     models.InterestRate
	ptype    models.ProductType
	products []models.Product
}

// newFixture создает активного клиента, ставку и два товара по 100.00 и 50.00
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{db: db}

	f.client = models.Client{ID: "1001", FirstName: "Ana", LastName: "Lopez", Email: "ana@example.com", IsActive: true}
	require.NoError(t, db.Create(&f.client).Error)

	f.rate = models.InterestRate{Percentage: decimal.RequireFromString("12.50")}
	require.NoError(t, db.Create(&f.rate).Error)

	f.ptype = models.ProductType{Description: "Appliances"}
	require.NoError(t, db.Create(&f.ptype).Error)

	for _, p := range []struct {
		name  string
		price string
	}{{"Fridge", "100.00"}, {"Kettle", "50.00"}} {
		product := models.Product{Name: p.name, Price: decimal.RequireFromString(p.price), IsActive: true, ProductTypeID: f.ptype.ID}
		require.NoError(t, db.Create(&product).Error)
		f.products = append(f.products, product)
	}
	return f
}

func (f *fixture) creditDTO(installments int, items ...CreditProductDTO) CreateCreditDTO {
	return CreateCreditDTO{
		Description:    "Kitchen",
		NoInstallment:  installments,
		PenaltyRate:    decimal.RequireFromString("1.50"),
		InterestRateID: f.rate.ID,
		ClientID:       f.client.ID,
		Products:       items,
	}
}

// recordingNotifier запоминает отправленные уведомления
type recordingNotifier struct {
	mu       sync.Mutex
	approved []uint
	paid     []uint
}

func (n *recordingNotifier) CreditApproved(credit *models.Credit, _ *Schedule) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approved = append(n.approved, credit.ID)
	return nil
}

func (n *recordingNotifier) CreditPaid(credit *models.Credit) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paid = append(n.paid, credit.ID)
	return nil
}

func fixedClock(day time.Time) func() time.Time {
	return func() time.Time { return day }
}

// createApproved создает и одобряет кредит с одной позицией
func createApproved(t *testing.T, svc *CreditService, f *fixture, installments, quantity int) *CreditResponseDTO {
	t.Helper()
	ctx := context.Background()
	credit, err := svc.Create(ctx, f.creditDTO(installments, CreditProductDTO{ProductID: f.products[0].ID, Quantity: quantity}))
	require.NoError(t, err)
	approved, err := svc.Update(ctx, credit.ID, UpdateCreditDTO{Status: models.CreditStatusApproved})
	require.NoError(t, err)
	return approved
}
