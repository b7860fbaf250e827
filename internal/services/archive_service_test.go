package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func TestArchiveService_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("cutoff honors retention", func(t *testing.T) {
		archiver := new(MockArchiver)
		svc := NewArchiveService(archiver, 30)

		archiver.On("Archive", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
			expected := time.Now().UTC().AddDate(0, 0, -30)
			return cutoff.Sub(expected).Abs() < time.Minute
		})).Return(int64(3), nil)

		moved, err := svc.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), moved)
		archiver.AssertExpectations(t)
	})

	t.Run("storage failure is wrapped", func(t *testing.T) {
		archiver := new(MockArchiver)
		svc := NewArchiveService(archiver, 30)

		archiver.On("Archive", mock.Anything, mock.Anything).Return(int64(0), assert.AnError)

		_, err := svc.Run(ctx)
		assert.ErrorIs(t, err, ErrStorage)
	})

	t.Run("non-positive retention falls back to default", func(t *testing.T) {
		svc := NewArchiveService(new(MockArchiver), 0)
		assert.Equal(t, 30*24*time.Hour, svc.retention)
	})
}
