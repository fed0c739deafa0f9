package merge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"cluster-merge/core/reconcile"
	"cluster-merge/core/storage/mocks"
	"cluster-merge/core/table"
	"cluster-merge/feature/merge/sources"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestService_Spec(t *testing.T) {
	svc := NewService(nil, "b", zap.NewNop(), nil, reconcile.Spec{ClusterColumns: []string{"id_1"}})

	spec := svc.Spec(SpecRequest{})
	assert.Equal(t, "address", spec.EntityColumn)
	assert.Equal(t, []string{"id_1"}, spec.ClusterColumns)
	assert.Equal(t, "id", spec.OutputColumn)

	spec = svc.Spec(SpecRequest{EntityColumn: "wallet", ClusterColumns: []string{"a", "b"}, OutputColumn: "cluster"})
	assert.Equal(t, "wallet", spec.EntityColumn)
	assert.Equal(t, []string{"a", "b"}, spec.ClusterColumns)
	assert.Equal(t, "cluster", spec.OutputColumn)
}

func TestService_MergeRowsKeepsColumnOrder(t *testing.T) {
	svc := NewService(nil, "b", zap.NewNop(), nil, reconcile.Spec{})

	resp, err := svc.MergeRows(InlineRequest{
		SpecRequest: SpecRequest{ClusterColumns: []string{"k"}},
		Rows:        json.RawMessage(`[{"z": true, "address": 2, "k": 4}, {"z": false, "address": 1, "k": 4}]`),
	})
	require.NoError(t, err)
	assert.Equal(t, `[{"z":true,"address":2,"k":4,"id":4},{"z":false,"address":1,"k":4,"id":4}]`, strings.TrimSpace(string(resp.Rows)))
	assert.Equal(t, 1, resp.Summary.Groups)
}

func TestService_MergeObjectInvalidatesOutput(t *testing.T) {
	mockClient := new(mocks.Client)
	for _, name := range []string{"a.csv", "a.merged.csv"} {
		mockClient.On("GetObject", mock.Anything, "b", name, mock.Anything).
			Return(io.NopCloser(strings.NewReader(scenarioCSV)), nil).Once()
	}
	mockClient.On("PutObject", mock.Anything, "b", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	svc := NewService(mockClient, "b", zap.NewNop(), nil, testDefaults)
	ctx := context.Background()

	// Cache a plan over the object that is about to be overwritten
	_, err := svc.MergeObject(ctx, ObjectRequest{Name: "a.merged.csv", DryRun: true})
	require.NoError(t, err)
	_, ok := svc.CachedObjectPlan("a.merged.csv", SpecRequest{})
	require.True(t, ok)

	report, err := svc.MergeObject(ctx, ObjectRequest{Name: "a.csv"})
	require.NoError(t, err)
	assert.True(t, report.Applied)

	_, ok = svc.CachedObjectPlan("a.merged.csv", SpecRequest{})
	assert.False(t, ok)
	_, ok = svc.CachedObjectPlan("a.csv", SpecRequest{})
	assert.True(t, ok)
}

func TestService_MergeObjectWriteRereadsInput(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("GetObject", mock.Anything, "b", "a.csv", mock.Anything).
		Return(io.NopCloser(strings.NewReader("address,id_1,id_2\nA,1,0\nB,1,0\n")), nil).Once()
	mockClient.On("GetObject", mock.Anything, "b", "a.csv", mock.Anything).
		Return(io.NopCloser(strings.NewReader("address,id_1,id_2\nA,5,0\nB,0,0\n")), nil).Once()

	var written []string
	mockClient.On("PutObject", mock.Anything, "b", "a.merged.csv", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			data, err := io.ReadAll(args.Get(3).(io.Reader))
			require.NoError(t, err)
			written = append(written, string(data))
		}).
		Return(minio.UploadInfo{}, nil)

	svc := NewService(mockClient, "b", zap.NewNop(), nil, testDefaults)
	ctx := context.Background()

	_, err := svc.MergeObject(ctx, ObjectRequest{Name: "a.csv"})
	require.NoError(t, err)
	report, err := svc.MergeObject(ctx, ObjectRequest{Name: "a.csv"})
	require.NoError(t, err)
	assert.True(t, report.Applied)

	require.Len(t, written, 2)
	assert.Equal(t, "address,id_1,id_2,id\nA,1,0,1\nB,1,0,1\n", written[0])
	assert.Equal(t, "address,id_1,id_2,id\nA,5,0,5\nB,0,0,0\n", written[1])
	mockClient.AssertNumberOfCalls(t, "GetObject", 2)

	// A dry run right after the write is served from the cache
	_, err = svc.MergeObject(ctx, ObjectRequest{Name: "a.csv", DryRun: true})
	require.NoError(t, err)
	mockClient.AssertNumberOfCalls(t, "GetObject", 2)
}

func TestService_MergeTable(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:service_merge_table?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE clusters (address TEXT, id_1 INTEGER, id_2 INTEGER)").Error)
	for i, row := range [][3]any{{"A", 1, 0}, {"B", 1, 2}, {"C", 0, 2}, {"D", 0, 0}} {
		require.NoError(t, db.Exec("INSERT INTO clusters VALUES (?, ?, ?)", row[0], row[1], row[2]).Error, fmt.Sprint(i))
	}

	svc := NewService(nil, "b", zap.NewNop(), db, testDefaults)

	report, err := svc.MergeTable(context.Background(), TableRequest{Name: "clusters", DryRun: true})
	require.NoError(t, err)
	assert.False(t, report.Applied)
	assert.Equal(t, 2, report.Plan.Summary.Groups)

	report, err = svc.MergeTable(context.Background(), TableRequest{Name: "clusters", Output: "clusters_final"})
	require.NoError(t, err)
	assert.True(t, report.Applied)

	var count int64
	require.NoError(t, db.Table("clusters_final").Where("id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	_, err = svc.MergeTable(context.Background(), TableRequest{Name: "clusters", SpecRequest: SpecRequest{ClusterColumns: []string{"id_3"}}})
	assert.ErrorIs(t, err, table.ErrUnknownColumn)
}

func TestHandleMergeTable_OutputIsInput(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:handler_output_is_input?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE clusters (address TEXT, id_1 INTEGER, id_2 INTEGER)").Error)
	require.NoError(t, db.Exec("INSERT INTO clusters VALUES ('A', 1, 0), ('B', 1, 2)").Error)

	app := fiber.New()
	NewHandler(NewService(nil, "b", zap.NewNop(), db, testDefaults)).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("POST", "/merge/tables/clusters?output=clusters", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	var count int64
	require.NoError(t, db.Table("clusters").Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, 400, StatusFor(fmt.Errorf("x: %w", table.ErrUnknownColumn)))
	assert.Equal(t, 400, StatusFor(reconcile.ErrMissingEntity))
	assert.Equal(t, 400, StatusFor(ErrBadRequest))
	assert.Equal(t, 400, StatusFor(fmt.Errorf("x: %w", sources.ErrOutputIsInput)))
	assert.Equal(t, 503, StatusFor(ErrNoDatabase))
	assert.Equal(t, 404, StatusFor(fmt.Errorf("read: %w", minio.ErrorResponse{Code: "NoSuchKey"})))
	assert.Equal(t, 500, StatusFor(assert.AnError))
}
