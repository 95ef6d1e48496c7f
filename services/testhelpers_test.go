package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"carbscan-backend/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.UserDevice{}, &models.NotificationMessage{}))
	return db
}

// fakeGateway is a scriptable PushGateway. Tokens starting with "bad" are
// invalid; SubmitFunc decides the tickets per batch.
type fakeGateway struct {
	maxBatch   int
	batches    [][]PushMessage
	SubmitFunc func(batch []PushMessage) ([]PushTicket, error)
}

func newFakeGateway(maxBatch int) *fakeGateway {
	return &fakeGateway{
		maxBatch: maxBatch,
		SubmitFunc: func(batch []PushMessage) ([]PushTicket, error) {
			tickets := make([]PushTicket, len(batch))
			for i := range batch {
				tickets[i] = PushTicket{Status: TicketStatusOK}
			}
			return tickets, nil
		},
	}
}

func (g *fakeGateway) IsValidToken(token string) bool {
	return !strings.HasPrefix(token, "bad")
}

func (g *fakeGateway) MaxBatchSize() int {
	return g.maxBatch
}

func (g *fakeGateway) SubmitBatch(_ context.Context, messages []PushMessage) ([]PushTicket, error) {
	g.batches = append(g.batches, messages)
	return g.SubmitFunc(messages)
}

func errorTicket(reason string) PushTicket {
	return PushTicket{
		Status:  TicketStatusError,
		Message: "delivery failed",
		Details: &PushTicketDetails{Error: reason},
	}
}
