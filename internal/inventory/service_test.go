package inventory_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/innkeeper/internal/inventory"
)

func TestService_Import(t *testing.T) {
	type testCase struct {
		name      string
		content   string
		setupMock func(repo *inventory.MockRepository)
		want      inventory.Result
		wantErr   bool
	}

	tests := []testCase{
		{
			name:    "Success",
			content: "room_id\n101\n102\n103\n",
			setupMock: func(repo *inventory.MockRepository) {
				repo.EXPECT().AddRooms(gomock.Any(), []int64{101, 102, 103}).Return(2, nil)
			},
			want: inventory.Result{Parsed: 3, Added: 2},
		},
		{
			name:      "ParseErrorSkipsRepository",
			content:   "room_id\n",
			setupMock: func(*inventory.MockRepository) {},
			wantErr:   true,
		},
		{
			name:    "RepositoryError",
			content: "101\n",
			setupMock: func(repo *inventory.MockRepository) {
				repo.EXPECT().AddRooms(gomock.Any(), []int64{101}).Return(0, errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := inventory.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := inventory.NewService(repo)

			got, err := svc.Import(context.Background(), strings.NewReader(tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
