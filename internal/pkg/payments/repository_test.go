package payments

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticketcare/ticketcare/app/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return gdb, mock
}

func TestCreateWebhookEventIfNotExists_New(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `webhook_events`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT \\* FROM `webhook_events`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "provider", "provider_event_id"}).
			AddRow(1, "chip", "pay_1:paid"))

	created, stored, err := repo.CreateWebhookEventIfNotExists(&models.WebhookEvent{
		Provider:        "chip",
		ProviderEventID: "pay_1:paid",
		EventType:       "paid",
		PayloadJSON:     `{"id":"pay_1"}`,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint(1), stored.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWebhookEventIfNotExists_Duplicate(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `webhook_events`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT \\* FROM `webhook_events`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "provider", "provider_event_id"}).
			AddRow(1, "chip", "pay_1:paid"))

	created, stored, err := repo.CreateWebhookEventIfNotExists(&models.WebhookEvent{
		Provider:        "chip",
		ProviderEventID: "pay_1:paid",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, uint(1), stored.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkWebhookProcessed(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `webhook_events` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.MarkWebhookProcessed(1, "invalid payload"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteOrderPayment_AppliesOnce(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewRepository(gdb)

	order := &models.Order{ID: 11, EventID: 7, User: &models.User{Name: "Aisyah"}}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `events` SET `tickets_sold`=tickets_sold \\+ ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `tickets`").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	applied, err := repo.CompleteOrderPayment(order, "chip_fpx", 2)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteOrderPayment_AlreadyPaidSkipsCounter(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewRepository(gdb)

	order := &models.Order{ID: 11, EventID: 7}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	applied, err := repo.CompleteOrderPayment(order, "chip_fpx", 2)
	require.NoError(t, err)
	assert.False(t, applied)
	// No event update and no ticket insert may follow the guarded miss.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetOrderPaymentStatus_GuardsNonPending(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	applied, err := repo.SetOrderPaymentStatus(11, models.PaymentStatusFailed, "chip_fpx")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletePremiumUpgrade(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewRepository(gdb)

	upgrade := &models.EventPremiumUpgrade{ID: "pay_up", EventID: 9, PremiumTierID: 3}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `event_premium_upgrades` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `events` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := repo.CompletePremiumUpgrade(upgrade, 500)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
