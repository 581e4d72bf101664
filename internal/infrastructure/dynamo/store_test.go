package dynamo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/portfolio-gate/internal/infrastructure/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockAPI struct{ mock.Mock }

func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.PutItemOutput{}, args.Error(0)
}
func (m *mockAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.TransactWriteItemsOutput{}, args.Error(0)
}
func (m *mockAPI) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.ScanOutput)
	return out, args.Error(1)
}
func (m *mockAPI) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.DescribeTableOutput{}, args.Error(0)
}

// --- helpers ---

func newTestStore(api *mockAPI) *Store {
	s := NewStore(api, "kv")
	s.now = func() time.Time { return time.Unix(1000, 0) }
	return s
}

func valueItem(v string, ttl int64) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		attrValue: &types.AttributeValueMemberB{Value: []byte(v)},
	}
	if ttl > 0 {
		item[attrTTL] = &types.AttributeValueMemberN{Value: fmt.Sprint(ttl)}
	}
	return item
}

// --- tests ---

func TestGet_ReturnsValue(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: valueItem("hello", 2000)}, nil)

	b, err := newTestStore(api).Get(context.Background(), "viewer:a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestGet_ExpiredItemIsNil(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: valueItem("hello", 999)}, nil)

	_, err := newTestStore(api).Get(context.Background(), "token:x")
	assert.ErrorIs(t, err, kv.ErrNil)
}

func TestGet_MissingItemIsNil(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := newTestStore(api).Get(context.Background(), "token:x")
	assert.ErrorIs(t, err, kv.ErrNil)
}

func TestSet_WritesTTL(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		ttl, ok := in.Item[attrTTL].(*types.AttributeValueMemberN)
		return ok && ttl.Value == "1900"
	})).Return(nil)

	require.NoError(t, newTestStore(api).Set(context.Background(), "token:x", []byte("{}"), 15*time.Minute))
	api.AssertExpectations(t)
}

func TestGetDel_AsksForOldValues(t *testing.T) {
	api := &mockAPI{}
	api.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		return in.ReturnValues == types.ReturnValueAllOld
	})).Return(&dynamodb.DeleteItemOutput{Attributes: valueItem("tok", 2000)}, nil).Once()
	api.On("DeleteItem", mock.Anything, mock.Anything).Return(&dynamodb.DeleteItemOutput{}, nil).Once()

	s := newTestStore(api)
	b, err := s.GetDel(context.Background(), "token:x")
	require.NoError(t, err)
	assert.Equal(t, "tok", string(b))

	_, err = s.GetDel(context.Background(), "token:x")
	assert.ErrorIs(t, err, kv.ErrNil)
}

func TestDel_BatchesInTransactions(t *testing.T) {
	api := &mockAPI{}
	api.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil)

	keys := make([]string, 0, 150)
	for i := 0; i < 150; i++ {
		keys = append(keys, fmt.Sprintf("session:%d", i))
	}
	require.NoError(t, newTestStore(api).Del(context.Background(), keys...))
	api.AssertNumberOfCalls(t, "TransactWriteItems", 2)
}

func TestDel_SingleKeyUsesDeleteItem(t *testing.T) {
	api := &mockAPI{}
	api.On("DeleteItem", mock.Anything, mock.Anything).Return(&dynamodb.DeleteItemOutput{}, nil)

	require.NoError(t, newTestStore(api).Del(context.Background(), "a", "a"))
	api.AssertNumberOfCalls(t, "DeleteItem", 1)
	api.AssertNotCalled(t, "TransactWriteItems", mock.Anything, mock.Anything)
}

func TestIncr_ParsesCounter(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return *in.UpdateExpression == "SET #f0 = :v0 ADD #cnt :one"
	})).Return(&dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
		attrCounter: &types.AttributeValueMemberN{Value: "3"},
	}}, nil)

	n, err := newTestStore(api).Incr(context.Background(), "ratelimit:request:1.2.3.4:7", 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSMembers_EmptyWhenMissing(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	members, err := newTestStore(api).SMembers(context.Background(), "sessions:a@b.com")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestSAdd_NoMembersIsNoop(t *testing.T) {
	api := &mockAPI{}
	require.NoError(t, newTestStore(api).SAdd(context.Background(), "pending_viewers"))
	api.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything)
}
