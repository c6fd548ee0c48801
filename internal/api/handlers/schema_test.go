package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ekamlabs/ekamquery/internal/domain"
)

// MockSchemaService is a mock for SchemaService
type MockSchemaService struct {
	mock.Mock
}

func (m *MockSchemaService) Discover(ctx context.Context) (*domain.SchemaDescription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SchemaDescription), args.Error(1)
}

func (m *MockSchemaService) Refresh(ctx context.Context) (*domain.SchemaDescription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SchemaDescription), args.Error(1)
}

func testSchema() *domain.SchemaDescription {
	return &domain.SchemaDescription{
		Tables: []domain.TableInfo{
			{Name: "employees", Columns: []domain.ColumnInfo{{Name: "employee_id", Type: "integer", IsPrimaryKey: true}}},
		},
	}
}

func TestSchemaHandler_Get(t *testing.T) {
	svc := new(MockSchemaService)
	handler := NewSchemaHandler(svc)

	svc.On("Discover", mock.Anything).Return(testSchema(), nil)

	req := httptest.NewRequest(http.MethodGet, "/schema", nil)
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var schema domain.SchemaDescription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schema))
	require.Len(t, schema.Tables, 1)
	assert.Equal(t, "employees", schema.Tables[0].Name)
}

func TestSchemaHandler_Get_DatabaseUnreachable(t *testing.T) {
	svc := new(MockSchemaService)
	handler := NewSchemaHandler(svc)

	svc.On("Discover", mock.Anything).Return(nil, domain.ErrDatabaseUnreachable)

	req := httptest.NewRequest(http.MethodGet, "/schema", nil)
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.ErrCodeConnection, body["code"])
}

func TestSchemaHandler_Refresh(t *testing.T) {
	svc := new(MockSchemaService)
	handler := NewSchemaHandler(svc)

	svc.On("Refresh", mock.Anything).Return(testSchema(), nil)

	req := httptest.NewRequest(http.MethodPost, "/schema/refresh", nil)
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
