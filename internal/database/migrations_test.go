package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/moodtracker/internal/models"
)

func TestAutoMigrateCreatesTables(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrate(db))

	migrator := db.Migrator()
	tables := []interface{}{
		&models.PushSubscription{},
		&models.MoodEvent{},
		&models.DeliveryReport{},
	}
	for _, table := range tables {
		require.True(t, migrator.HasTable(table), "expected table for %T to exist", table)
	}
}

func TestAutoMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrate(db))
	require.NoError(t, AutoMigrate(db))
}

func TestPushSubscriptionEndpointIsUnique(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	first := models.PushSubscription{Endpoint: "https://push.example.com/a", P256dh: "k", Auth: "a", Owner: models.DefaultOwner}
	require.NoError(t, db.Create(&first).Error)

	dup := models.PushSubscription{Endpoint: "https://push.example.com/a", P256dh: "k2", Auth: "a2", Owner: models.DefaultOwner}
	require.Error(t, db.Create(&dup).Error)
}

func TestAutoMigrateRejectsNilHandle(t *testing.T) {
	require.Error(t, AutoMigrate(nil))
}
